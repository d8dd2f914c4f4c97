package invoices

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/haulboard/haulboard/internal/authz"
	"github.com/haulboard/haulboard/internal/shared"
	"github.com/haulboard/haulboard/internal/view"
	"github.com/haulboard/haulboard/jobs"
	"github.com/haulboard/haulboard/report"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	pdf       *report.Client
	jobs      *jobs.Client
	templates *view.Engine
	csrf      *shared.CSRFManager
	registry  *authz.Registry
	gate      *authz.Gate
}

func NewHandler(logger *slog.Logger, service *Service, pdf *report.Client, jobsClient *jobs.Client, templates *view.Engine, csrf *shared.CSRFManager, registry *authz.Registry, gate *authz.Gate) *Handler {
	return &Handler{logger: logger, service: service, pdf: pdf, jobs: jobsClient, templates: templates, csrf: csrf, registry: registry, gate: gate}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := shared.FiltersFromQuery(r)

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list invoices failed", "error", err)
		http.Error(w, "Failed to load invoices", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/invoices/list.html", map[string]any{
		"Invoices":   list,
		"Filters":    filters,
		"TotalCount": total,
		"Errors":     map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}

	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("get invoice failed", "error", err, "id", id)
		}
		http.Error(w, "Invoice not found", http.StatusNotFound)
		return
	}

	canApprove := false
	if identity := authz.IdentityFromContext(r.Context()); identity != nil {
		canApprove = h.registry.HasPermission(identity.Role, authz.ResourceInvoices, authz.ActionApprove)
	}

	h.render(w, r, "pages/invoices/detail.html", map[string]any{
		"Invoice":    inv,
		"CanApprove": canApprove,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	serviceID, _ := strconv.ParseInt(r.PostFormValue("service_id"), 10, 64)
	amount, _ := strconv.ParseFloat(r.PostFormValue("amount"), 64)
	tax, _ := strconv.ParseFloat(r.PostFormValue("tax"), 64)
	dueAt, err := time.Parse("2006-01-02", r.PostFormValue("due_at"))
	if err != nil {
		h.renderForm(w, r, map[string]string{"general": "A valid due date is required"}, http.StatusBadRequest)
		return
	}

	created, err := h.service.Issue(r.Context(), actorID(r), serviceID, amount, tax, dueAt)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, ErrServiceNotBillable) {
			msg = "Only completed services can be invoiced"
		}
		h.renderForm(w, r, map[string]string{"general": msg}, http.StatusBadRequest)
		return
	}

	h.warmDashboard(r)
	h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(created.ID, 10), "success", "Invoice "+created.Number+" issued")
}

// warmDashboard queues a cache rebuild so revenue widgets catch up without
// waiting for the next scheduled warmup.
func (h *Handler) warmDashboard(r *http.Request) {
	if h.jobs == nil {
		return
	}
	if _, err := h.jobs.EnqueueDashboardWarmup(r.Context()); err != nil {
		h.logger.Warn("enqueue dashboard warmup", "error", err)
	}
}

// Transit handles the POSTed lifecycle actions from the detail page.
func (h *Handler) Transit(target Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
			return
		}

		if err := h.service.Transition(r.Context(), actorID(r), id, target); err != nil {
			msg := "Could not update invoice status"
			if errors.Is(err, ErrInvalidTransition) {
				msg = "That status change is no longer possible"
			} else if !errors.Is(err, shared.ErrNotFound) {
				h.logger.Error("invoice transition failed", "error", err, "id", id, "target", target)
			}
			h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(id, 10), "error", msg)
			return
		}

		h.warmDashboard(r)
		h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(id, 10), "success", "Invoice is now "+string(target))
	}
}

// ExportCSV streams all invoices as a CSV download.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Export(r.Context())
	if err != nil {
		h.logger.Error("export invoices failed", "error", err)
		http.Error(w, "Failed to export invoices", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.csv"`)
	if err := WriteCSV(w, list); err != nil {
		h.logger.Error("write invoice csv", "error", err)
	}
}

// DownloadPDF renders the invoice via the PDF service and streams the result.
func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}

	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Invoice not found", http.StatusNotFound)
		return
	}

	html, err := PDFHTML(inv)
	if err != nil {
		h.logger.Error("build invoice html", "error", err, "id", id)
		http.Error(w, "Failed to render invoice", http.StatusInternalServerError)
		return
	}

	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render invoice pdf", "error", err, "id", id)
		http.Error(w, "PDF service unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+inv.Number+`.pdf"`)
	_, _ = w.Write(pdf)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, errs map[string]string, status int) {
	billable, err := h.service.BillableServices(r.Context())
	if err != nil {
		h.logger.Error("load billable services", "error", err)
	}
	h.render(w, r, "pages/invoices/form.html", map[string]any{
		"Errors":   errs,
		"Services": billable,
	}, status)
}

func actorID(r *http.Request) int64 {
	if identity := authz.IdentityFromContext(r.Context()); identity != nil {
		return identity.ID
	}
	return 0
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	identity := authz.IdentityFromContext(r.Context())
	viewData := view.TemplateData{
		Title:       "Invoices",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Identity:    identity,
		Data:        data,
	}
	if identity != nil {
		viewData.RoleLabel = h.registry.RoleLabel(identity.Role)
		viewData.Can = func(resource, action string) bool {
			return h.registry.HasPermission(identity.Role, authz.Resource(resource), authz.Action(action))
		}
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", "error", err, "template", template)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
