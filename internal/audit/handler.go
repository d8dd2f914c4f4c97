package audit

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haulboard/haulboard/internal/authz"
	"github.com/haulboard/haulboard/internal/shared"
	"github.com/haulboard/haulboard/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	registry  *authz.Registry
	gate      *authz.Gate
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, registry *authz.Registry, gate *authz.Gate) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, registry: registry, gate: gate}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceAuditLogs, authz.ActionView))
		r.Get("/", h.List)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceAuditLogs, authz.ActionExport))
		r.Get("/export.csv", h.ExportCSV)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{Action: r.URL.Query().Get("action")}

	entries, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list audit entries failed", "error", err)
		http.Error(w, "Failed to load audit log", http.StatusInternalServerError)
		return
	}

	h.render(w, r, map[string]any{
		"Entries": entries,
		"Filters": filters,
		"Errors":  map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{Action: r.URL.Query().Get("action")}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit_logs.csv"`)
	if err := h.service.WriteCSV(r.Context(), w, filters); err != nil {
		h.logger.Error("export audit csv", "error", err)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	identity := authz.IdentityFromContext(r.Context())
	viewData := view.TemplateData{
		Title:       "Audit log",
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
	if err := h.templates.Render(w, "pages/audit/list.html", viewData); err != nil {
		h.logger.Error("render template", "error", err)
	}
}
