package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/haulboard/haulboard/internal/services"
	"github.com/haulboard/haulboard/internal/shared"
)

var (
	ErrServiceNotBillable = errors.New("service is not completed and cannot be invoiced")
	ErrInvalidTransition  = errors.New("invalid invoice status transition")
)

type Service struct {
	logger     *slog.Logger
	repo       Repository
	serviceDir *services.Service
	audit      *shared.AuditLogger
}

func NewService(logger *slog.Logger, repo Repository, serviceDir *services.Service, audit *shared.AuditLogger) *Service {
	return &Service{logger: logger, repo: repo, serviceDir: serviceDir, audit: audit}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Invoice, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	if id <= 0 {
		return Invoice{}, errors.New("invalid invoice ID")
	}
	return s.repo.Get(ctx, id)
}

// BillableServices lists completed transport services that invoices can be
// raised against.
func (s *Service) BillableServices(ctx context.Context) ([]services.TransportService, error) {
	list, _, err := s.serviceDir.List(ctx, services.ListFilters{Status: services.StatusCompleted})
	return list, err
}

// Issue creates an invoice for a completed transport service.
func (s *Service) Issue(ctx context.Context, actorID, serviceID int64, amount, tax float64, dueAt time.Time) (Invoice, error) {
	if amount <= 0 {
		return Invoice{}, errors.New("invoice amount must be positive")
	}
	if tax < 0 {
		return Invoice{}, errors.New("invoice tax cannot be negative")
	}
	svc, err := s.serviceDir.Get(ctx, serviceID)
	if err != nil {
		return Invoice{}, err
	}
	if svc.Status != services.StatusCompleted {
		return Invoice{}, ErrServiceNotBillable
	}

	now := time.Now()
	seq, err := s.repo.NextSequence(ctx, now.Year())
	if err != nil {
		return Invoice{}, err
	}

	inv := Invoice{
		Number:    fmt.Sprintf("INV-%d-%05d", now.Year(), seq),
		ServiceID: serviceID,
		Amount:    amount,
		Tax:       tax,
		Total:     amount + tax,
		Status:    StatusIssued,
		IssuedAt:  now,
		DueAt:     dueAt,
	}
	created, err := s.repo.Create(ctx, inv)
	if err != nil {
		return Invoice{}, err
	}
	s.recordAudit(ctx, actorID, "invoices.issue", created.ID)
	return created, nil
}

// Transition moves the invoice to the target status after checking lifecycle rules.
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
	s.recordAudit(ctx, actorID, "invoices.status."+string(target), id)
	return nil
}

// Export returns every invoice for the CSV download.
func (s *Service) Export(ctx context.Context) ([]Invoice, error) {
	return s.repo.All(ctx)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, invoiceID int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "invoice",
		EntityID: strconv.FormatInt(invoiceID, 10),
	})
	if err != nil {
		s.logger.Error("record audit log", "error", err, "action", action)
	}
}
