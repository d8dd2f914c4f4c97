package invoices_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulboard/haulboard/internal/invoices"
	"github.com/haulboard/haulboard/internal/services"
	"github.com/haulboard/haulboard/internal/shared"
	_ "github.com/haulboard/haulboard/testing"
)

type mockRepository struct {
	byID      map[int64]invoices.Invoice
	nextID    int64
	sequences map[int]int64
	raceLoser bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{byID: map[int64]invoices.Invoice{}, sequences: map[int]int64{}}
}

func (m *mockRepository) List(ctx context.Context, filters shared.ListFilters) ([]invoices.Invoice, int, error) {
	var list []invoices.Invoice
	for _, inv := range m.byID {
		list = append(list, inv)
	}
	return list, len(list), nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (invoices.Invoice, error) {
	inv, ok := m.byID[id]
	if !ok {
		return invoices.Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (m *mockRepository) Create(ctx context.Context, inv invoices.Invoice) (invoices.Invoice, error) {
	m.nextID++
	inv.ID = m.nextID
	m.byID[inv.ID] = inv
	return inv, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, from, to invoices.Status) error {
	inv, ok := m.byID[id]
	if !ok || inv.Status != from || m.raceLoser {
		return shared.ErrNotFound
	}
	inv.Status = to
	m.byID[id] = inv
	return nil
}

func (m *mockRepository) NextSequence(ctx context.Context, year int) (int64, error) {
	m.sequences[year]++
	return m.sequences[year], nil
}

func (m *mockRepository) All(ctx context.Context) ([]invoices.Invoice, error) {
	list, _, err := m.List(ctx, shared.ListFilters{})
	return list, err
}

// serviceRepo backs the transport service directory with a single order.
type serviceRepo struct {
	svc services.TransportService
}

func (s *serviceRepo) List(ctx context.Context, filters services.ListFilters) ([]services.TransportService, int, error) {
	if filters.Status != "" && s.svc.Status != filters.Status {
		return nil, 0, nil
	}
	return []services.TransportService{s.svc}, 1, nil
}

func (s *serviceRepo) Get(ctx context.Context, id int64) (services.TransportService, error) {
	if id != s.svc.ID {
		return services.TransportService{}, shared.ErrNotFound
	}
	return s.svc, nil
}

func (s *serviceRepo) Create(ctx context.Context, svc services.TransportService) (services.TransportService, error) {
	return svc, nil
}

func (s *serviceRepo) Update(ctx context.Context, id int64, svc services.TransportService) error {
	return nil
}

func (s *serviceRepo) UpdateStatus(ctx context.Context, id int64, from, to services.Status) error {
	return nil
}

func (s *serviceRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

func newInvoiceService(t *testing.T, repo invoices.Repository, status services.Status) *invoices.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := services.NewService(logger, &serviceRepo{svc: services.TransportService{
		ID:     10,
		Status: status,
	}}, nil)
	return invoices.NewService(logger, repo, dir, nil)
}

func TestIssueCreatesSequentialNumbers(t *testing.T) {
	repo := newMockRepository()
	svc := newInvoiceService(t, repo, services.StatusCompleted)
	due := time.Now().AddDate(0, 1, 0)

	first, err := svc.Issue(context.Background(), 1, 10, 1000, 210, due)
	require.NoError(t, err)
	second, err := svc.Issue(context.Background(), 1, 10, 500, 105, due)
	require.NoError(t, err)

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("INV-%d-00001", year), first.Number)
	assert.Equal(t, fmt.Sprintf("INV-%d-00002", year), second.Number)
	assert.Equal(t, invoices.StatusIssued, first.Status)
	assert.Equal(t, float64(1210), first.Total)
}

func TestIssueRejectsUncompletedService(t *testing.T) {
	for _, status := range []services.Status{services.StatusDraft, services.StatusConfirmed, services.StatusInTransit, services.StatusCancelled} {
		svc := newInvoiceService(t, newMockRepository(), status)
		_, err := svc.Issue(context.Background(), 1, 10, 1000, 0, time.Now())
		assert.ErrorIs(t, err, invoices.ErrServiceNotBillable, string(status))
	}
}

func TestIssueValidatesAmounts(t *testing.T) {
	svc := newInvoiceService(t, newMockRepository(), services.StatusCompleted)

	_, err := svc.Issue(context.Background(), 1, 10, 0, 0, time.Now())
	assert.Error(t, err)
	_, err = svc.Issue(context.Background(), 1, 10, 100, -1, time.Now())
	assert.Error(t, err)
}

func TestTransitionFollowsLifecycle(t *testing.T) {
	repo := newMockRepository()
	svc := newInvoiceService(t, repo, services.StatusCompleted)
	inv, err := svc.Issue(context.Background(), 1, 10, 100, 0, time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.Transition(context.Background(), 1, inv.ID, invoices.StatusApproved))
	require.NoError(t, svc.Transition(context.Background(), 1, inv.ID, invoices.StatusPaid))

	// Paid is terminal.
	err = svc.Transition(context.Background(), 1, inv.ID, invoices.StatusVoid)
	assert.ErrorIs(t, err, invoices.ErrInvalidTransition)
}

func TestTransitionVoidAllowedBeforePayment(t *testing.T) {
	repo := newMockRepository()
	svc := newInvoiceService(t, repo, services.StatusCompleted)
	inv, err := svc.Issue(context.Background(), 1, 10, 100, 0, time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.Transition(context.Background(), 1, inv.ID, invoices.StatusVoid))
	err = svc.Transition(context.Background(), 1, inv.ID, invoices.StatusApproved)
	assert.ErrorIs(t, err, invoices.ErrInvalidTransition)
}

func TestTransitionSkippingApprovalFails(t *testing.T) {
	repo := newMockRepository()
	svc := newInvoiceService(t, repo, services.StatusCompleted)
	inv, err := svc.Issue(context.Background(), 1, 10, 100, 0, time.Now())
	require.NoError(t, err)

	err = svc.Transition(context.Background(), 1, inv.ID, invoices.StatusPaid)
	assert.ErrorIs(t, err, invoices.ErrInvalidTransition)
}

func TestTransitionLostRaceMapsToInvalidTransition(t *testing.T) {
	repo := newMockRepository()
	svc := newInvoiceService(t, repo, services.StatusCompleted)
	inv, err := svc.Issue(context.Background(), 1, 10, 100, 0, time.Now())
	require.NoError(t, err)

	repo.raceLoser = true
	err = svc.Transition(context.Background(), 1, inv.ID, invoices.StatusApproved)
	assert.ErrorIs(t, err, invoices.ErrInvalidTransition)
}
