package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/haulboard/haulboard/internal/audit"
	"github.com/haulboard/haulboard/internal/auth"
	"github.com/haulboard/haulboard/internal/authz"
	"github.com/haulboard/haulboard/internal/clients"
	"github.com/haulboard/haulboard/internal/dashboard"
	"github.com/haulboard/haulboard/internal/invoices"
	"github.com/haulboard/haulboard/internal/observability"
	"github.com/haulboard/haulboard/internal/services"
	"github.com/haulboard/haulboard/internal/settings"
	"github.com/haulboard/haulboard/internal/shared"
	"github.com/haulboard/haulboard/internal/suppliers"
	"github.com/haulboard/haulboard/internal/users"
	"github.com/haulboard/haulboard/jobs"
	"github.com/haulboard/haulboard/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Gate           *authz.Gate

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	ClientsHandler     *clients.Handler
	SuppliersHandler   *suppliers.Handler
	ServicesHandler    *services.Handler
	InvoicesHandler    *invoices.Handler
	SettingsHandler    *settings.Handler
	AuditHandler       *audit.Handler
	DashboardHandler   *dashboard.Handler
	PermissionsHandler *authz.PermissionsHandler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Haulboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Gate.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if authz.IdentityFromContext(r.Context()) != nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, authz.LoginPath, http.StatusSeeOther)
	})

	params.AuthHandler.MountRoutes(r)
	r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	r.Route("/clients", params.ClientsHandler.MountRoutes)
	r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
	r.Route("/services", params.ServicesHandler.MountRoutes)
	r.Route("/invoices", params.InvoicesHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/settings", params.SettingsHandler.MountRoutes)
	r.Route("/audit", params.AuditHandler.MountRoutes)
	r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers so
// browsers keep assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
