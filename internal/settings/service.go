package settings

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/haulboard/haulboard/internal/shared"
)

type Service struct {
	logger *slog.Logger
	repo   Repository
	audit  *shared.AuditLogger
}

func NewService(logger *slog.Logger, repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{logger: logger, repo: repo, audit: audit}
}

func (s *Service) Get(ctx context.Context) (Settings, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Save(ctx context.Context, actorID int64, in Settings) error {
	if strings.TrimSpace(in.OrgName) == "" {
		return errors.New("organization name is required")
	}
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if len(in.Currency) != 3 {
		return errors.New("currency must be a 3 letter code")
	}
	if in.InvoiceDueDays < 0 {
		return errors.New("invoice due days cannot be negative")
	}
	if err := s.repo.Save(ctx, in); err != nil {
		return err
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "settings.update",
			Entity:   "org_settings",
			EntityID: "1",
			Meta:     map[string]any{"org_name": in.OrgName, "currency": in.Currency},
		})
		if err != nil {
			s.logger.Error("record audit log", "error", err)
		}
	}
	return nil
}
