package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

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
		r.Use(h.gate.Require(authz.ResourceDashboard, authz.ActionView))
		r.Get("/", h.Show)
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	var (
		summary  Summary
		revenue  []RevenuePoint
		statuses []StatusCount
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		summary, err = h.service.Summary(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		revenue, err = h.service.Revenue(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		statuses, err = h.service.StatusCounts(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("load dashboard failed", "error", err)
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	h.render(w, r, map[string]any{
		"Summary":      summary,
		"Revenue":      revenue,
		"Statuses":     statuses,
		"Unauthorized": r.URL.Query().Get("error") == "unauthorized",
	}, http.StatusOK)
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
		Title:       "Dashboard",
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
	if err := h.templates.Render(w, "pages/dashboard.html", viewData); err != nil {
		h.logger.Error("render template", "error", err)
	}
}
