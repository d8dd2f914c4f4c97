package settings

import (
	"log/slog"
	"net/http"
	"strconv"

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
		r.Use(h.gate.Require(authz.ResourceSettings, authz.ActionView))
		r.Get("/", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceSettings, authz.ActionEdit))
		r.Post("/", h.Save)
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("load settings failed", "error", err)
		current = Defaults()
	}
	h.render(w, r, map[string]any{"Settings": current, "Errors": map[string]string{}}, http.StatusOK)
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	dueDays, _ := strconv.Atoi(r.PostFormValue("invoice_due_days"))
	in := Settings{
		OrgName:        r.PostFormValue("org_name"),
		BillingEmail:   r.PostFormValue("billing_email"),
		Currency:       r.PostFormValue("currency"),
		InvoiceDueDays: dueDays,
	}

	if err := h.service.Save(r.Context(), actorID(r), in); err != nil {
		h.render(w, r, map[string]any{"Settings": in, "Errors": map[string]string{"general": err.Error()}}, http.StatusBadRequest)
		return
	}

	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Settings saved"})
	}
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

func actorID(r *http.Request) int64 {
	if identity := authz.IdentityFromContext(r.Context()); identity != nil {
		return identity.ID
	}
	return 0
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
		Title:       "Settings",
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
	if err := h.templates.Render(w, "pages/settings/form.html", viewData); err != nil {
		h.logger.Error("render template", "error", err)
	}
}
