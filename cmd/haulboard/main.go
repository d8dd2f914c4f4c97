package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/haulboard/haulboard/internal/app"
	"github.com/haulboard/haulboard/internal/audit"
	"github.com/haulboard/haulboard/internal/auth"
	"github.com/haulboard/haulboard/internal/authz"
	"github.com/haulboard/haulboard/internal/clients"
	"github.com/haulboard/haulboard/internal/dashboard"
	"github.com/haulboard/haulboard/internal/invoices"
	"github.com/haulboard/haulboard/internal/observability"
	"github.com/haulboard/haulboard/internal/platform/cache"
	"github.com/haulboard/haulboard/internal/platform/db"
	"github.com/haulboard/haulboard/internal/services"
	"github.com/haulboard/haulboard/internal/settings"
	"github.com/haulboard/haulboard/internal/shared"
	"github.com/haulboard/haulboard/internal/suppliers"
	"github.com/haulboard/haulboard/internal/users"
	"github.com/haulboard/haulboard/internal/view"
	"github.com/haulboard/haulboard/jobs"
	"github.com/haulboard/haulboard/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "haulboard_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager, auditLogger)

	registry := authz.NewRegistry(authz.DefaultConfig())
	metrics := observability.NewMetrics()
	gate := &authz.Gate{
		Registry: registry,
		Resolver: auth.NewResolver(authService),
		Logger:   logger,
		Audit:    auditLogger,
		Metrics:  metrics,
		PublicPrefixes: []string{
			"/static/",
			"/healthz",
			"/metrics",
		},
	}

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, templates, csrfManager, registry, gate)

	clientsRepo := clients.NewRepository(dbpool)
	clientsService := clients.NewService(clientsRepo)
	clientsHandler := clients.NewHandler(logger, clientsService, templates, csrfManager, registry, gate)

	suppliersRepo := suppliers.NewRepository(dbpool)
	suppliersService := suppliers.NewService(suppliersRepo)
	suppliersHandler := suppliers.NewHandler(logger, suppliersService, templates, csrfManager, registry, gate)

	servicesRepo := services.NewRepository(dbpool)
	servicesService := services.NewService(logger, servicesRepo, auditLogger)
	servicesHandler := services.NewHandler(logger, servicesService, clientsService, suppliersService, templates, csrfManager, registry, gate)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	pdfClient := report.NewClient(cfg.GotenbergURL)
	invoicesRepo := invoices.NewRepository(dbpool)
	invoicesService := invoices.NewService(logger, invoicesRepo, servicesService, auditLogger)
	invoicesHandler := invoices.NewHandler(logger, invoicesService, pdfClient, jobsClient, templates, csrfManager, registry, gate)

	settingsRepo := settings.NewRepository(dbpool)
	settingsService := settings.NewService(logger, settingsRepo, auditLogger)
	settingsHandler := settings.NewHandler(logger, settingsService, templates, csrfManager, registry, gate)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService, templates, csrfManager, registry, gate)

	dashboardRepo := dashboard.NewRepository(dbpool)
	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboardRepo, dashboardCache)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, templates, csrfManager, registry, gate)

	permissionsHandler := authz.NewPermissionsHandler(logger, registry)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Gate:           gate,

		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		ClientsHandler:     clientsHandler,
		SuppliersHandler:   suppliersHandler,
		ServicesHandler:    servicesHandler,
		InvoicesHandler:    invoicesHandler,
		SettingsHandler:    settingsHandler,
		AuditHandler:       auditHandler,
		DashboardHandler:   dashboardHandler,
		PermissionsHandler: permissionsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
