package invoices

import (
	"github.com/go-chi/chi/v5"

	"github.com/haulboard/haulboard/internal/authz"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceInvoices, authz.ActionView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceInvoices, authz.ActionCreate))
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceInvoices, authz.ActionApprove))
		r.Post("/{id}/approve", h.Transit(StatusApproved))
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceInvoices, authz.ActionEdit))
		r.Post("/{id}/paid", h.Transit(StatusPaid))
		r.Post("/{id}/void", h.Transit(StatusVoid))
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceInvoices, authz.ActionExport))
		r.Get("/export.csv", h.ExportCSV)
		r.Get("/{id}/pdf", h.DownloadPDF)
	})
}
