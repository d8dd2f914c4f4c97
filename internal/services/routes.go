package services

import (
	"github.com/go-chi/chi/v5"

	"github.com/haulboard/haulboard/internal/authz"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceServices, authz.ActionView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceServices, authz.ActionCreate))
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceServices, authz.ActionEdit))
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Update)
		r.Post("/{id}/dispatch", h.Transit(StatusInTransit))
		r.Post("/{id}/cancel", h.Transit(StatusCancelled))
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceServices, authz.ActionApprove))
		r.Post("/{id}/approve", h.Transit(StatusConfirmed))
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceServices, authz.ActionMarkCompleted))
		r.Post("/{id}/complete", h.Transit(StatusCompleted))
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceServices, authz.ActionDelete))
		r.Post("/{id}/delete", h.Delete)
	})
}
