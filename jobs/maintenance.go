package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/haulboard/haulboard/internal/audit"
	"github.com/haulboard/haulboard/internal/auth"
	"github.com/haulboard/haulboard/internal/dashboard"
)

// NewAuditPruneHandler returns the handler for TaskAuditPrune. The payload
// retention wins over the configured default when set.
func NewAuditPruneHandler(svc *audit.Service, defaultRetention time.Duration, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditPrunePayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return asynq.SkipRetry
			}
		}
		retention := payload.Retention
		if retention <= 0 {
			retention = defaultRetention
		}
		removed, err := svc.Prune(ctx, retention)
		if err != nil {
			logger.Error("audit prune failed", "error", err)
			return err
		}
		logger.Info("audit prune done", "removed", removed, "retention", retention.String())
		return nil
	}
}

// NewSessionCleanupHandler returns the handler for TaskSessionCleanup.
func NewSessionCleanupHandler(repo auth.Repository, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		removed, err := repo.DeleteExpiredSessions(ctx, time.Now())
		if err != nil {
			logger.Error("session cleanup failed", "error", err)
			return err
		}
		logger.Info("session cleanup done", "removed", removed)
		return nil
	}
}

// NewDashboardWarmupHandler returns the handler for TaskDashboardWarmup.
func NewDashboardWarmupHandler(svc *dashboard.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := svc.Invalidate(ctx); err != nil {
			logger.Error("dashboard invalidate failed", "error", err)
			return err
		}
		if err := svc.Warm(ctx); err != nil {
			logger.Error("dashboard warmup failed", "error", err)
			return err
		}
		logger.Info("dashboard warmup done")
		return nil
	}
}
