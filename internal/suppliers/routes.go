package suppliers

import (
	"github.com/go-chi/chi/v5"

	"github.com/haulboard/haulboard/internal/authz"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceSuppliers, authz.ActionView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceSuppliers, authz.ActionCreate))
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceSuppliers, authz.ActionEdit))
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceSuppliers, authz.ActionDelete))
		r.Post("/{id}/delete", h.Delete)
	})
}
