package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/haulboard/haulboard/internal/shared"
)

var ErrInvalidTransition = errors.New("invalid status transition")

type Service struct {
	logger *slog.Logger
	repo   Repository
	audit  *shared.AuditLogger
}

func NewService(logger *slog.Logger, repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{logger: logger, repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]TransportService, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (TransportService, error) {
	if id <= 0 {
		return TransportService{}, errors.New("invalid service ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, actorID int64, svc TransportService) (TransportService, error) {
	if err := s.validate(svc); err != nil {
		return TransportService{}, err
	}
	svc.Reference = newReference()
	svc.Status = StatusDraft
	created, err := s.repo.Create(ctx, svc)
	if err != nil {
		return TransportService{}, err
	}
	s.recordAudit(ctx, actorID, "services.create", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, actorID, id int64, svc TransportService) error {
	if id <= 0 {
		return errors.New("invalid service ID")
	}
	if err := s.validate(svc); err != nil {
		return err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Status.Terminal() {
		return fmt.Errorf("service %s can no longer be edited", current.Reference)
	}
	if err := s.repo.Update(ctx, id, svc); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "services.update", id)
	return nil
}

// Transition moves the service to the target status after checking the
// lifecycle rules against the current row.
func (s *Service) Transition(ctx context.Context, actorID, id int64, target Status) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !current.Status.CanTransition(target) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, target)
	}
	if err := s.repo.UpdateStatus(ctx, id, current.Status, target); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, target)
		}
		return err
	}
	s.recordAudit(ctx, actorID, "services.status."+string(target), id)
	return nil
}

func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if id <= 0 {
		return errors.New("invalid service ID")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "services.delete", id)
	return nil
}

func (s *Service) validate(svc TransportService) error {
	if svc.ClientID <= 0 {
		return errors.New("client is required")
	}
	if strings.TrimSpace(svc.Origin) == "" {
		return errors.New("origin is required")
	}
	if strings.TrimSpace(svc.Destination) == "" {
		return errors.New("destination is required")
	}
	if svc.Price < 0 {
		return errors.New("price cannot be negative")
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, serviceID int64) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "transport_service",
		EntityID: strconv.FormatInt(serviceID, 10),
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Error("record audit log", "error", err, "action", action)
	}
}

func newReference() string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return "TS-" + time.Now().Format("20060102") + "-" + suffix
}
