package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulboard/haulboard/internal/shared"
)

type mockRepository struct {
	byID   map[int64]TransportService
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{byID: map[int64]TransportService{}, nextID: 1}
}

func (m *mockRepository) List(ctx context.Context, filters ListFilters) ([]TransportService, int, error) {
	var out []TransportService
	for _, s := range m.byID {
		if filters.Status != "" && s.Status != filters.Status {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (TransportService, error) {
	s, ok := m.byID[id]
	if !ok {
		return TransportService{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *mockRepository) Create(ctx context.Context, svc TransportService) (TransportService, error) {
	svc.ID = m.nextID
	m.nextID++
	svc.CreatedAt = time.Now()
	svc.UpdatedAt = svc.CreatedAt
	m.byID[svc.ID] = svc
	return svc, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, svc TransportService) error {
	current, ok := m.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	svc.ID = id
	svc.Reference = current.Reference
	svc.Status = current.Status
	m.byID[id] = svc
	return nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	current, ok := m.byID[id]
	if !ok || current.Status != from {
		return shared.ErrNotFound
	}
	current.Status = to
	m.byID[id] = current
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	current, ok := m.byID[id]
	if !ok || current.Status != StatusDraft {
		return shared.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	return NewService(slog.Default(), repo, nil), repo
}

func draftService() TransportService {
	return TransportService{
		ClientID:    1,
		Origin:      "Lisbon",
		Destination: "Madrid",
		Price:       950,
		ScheduledAt: time.Now().Add(48 * time.Hour),
	}
}

func TestCreateAssignsReferenceAndDraftStatus(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), 1, draftService())
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, created.Status)
	assert.NotEmpty(t, created.Reference)
	assert.Contains(t, created.Reference, "TS-")
}

func TestCreateRejectsMissingFields(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*TransportService)
	}{
		{"missing client", func(s *TransportService) { s.ClientID = 0 }},
		{"missing origin", func(s *TransportService) { s.Origin = "  " }},
		{"missing destination", func(s *TransportService) { s.Destination = "" }},
		{"negative price", func(s *TransportService) { s.Price = -10 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := draftService()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), 1, in)
			assert.Error(t, err)
		})
	}
}

func TestTransitionFollowsLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), 1, draftService())
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, svc.Transition(ctx, 1, created.ID, StatusConfirmed))
	require.NoError(t, svc.Transition(ctx, 1, created.ID, StatusInTransit))
	require.NoError(t, svc.Transition(ctx, 1, created.ID, StatusCompleted))

	final, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
}

func TestTransitionRejectsSkippedSteps(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), 1, draftService())
	require.NoError(t, err)

	ctx := context.Background()

	err = svc.Transition(ctx, 1, created.ID, StatusInTransit)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = svc.Transition(ctx, 1, created.ID, StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionRejectsTerminalStates(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), 1, draftService())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, svc.Transition(ctx, 1, created.ID, StatusCancelled))

	for _, target := range []Status{StatusConfirmed, StatusInTransit, StatusCompleted, StatusDraft} {
		err := svc.Transition(ctx, 1, created.ID, target)
		assert.ErrorIs(t, err, ErrInvalidTransition, "cancelled service accepted transition to %s", target)
	}
}

func TestTransitionConcurrentActorsOnlyOneWins(t *testing.T) {
	svc, repo := newTestService(t)
	created, err := svc.Create(context.Background(), 1, draftService())
	require.NoError(t, err)

	ctx := context.Background()

	// A second actor moves the row before the first one's update lands.
	require.NoError(t, repo.UpdateStatus(ctx, created.ID, StatusDraft, StatusCancelled))

	err = svc.Transition(ctx, 1, created.ID, StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateRejectsTerminalService(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), 1, draftService())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, svc.Transition(ctx, 1, created.ID, StatusCancelled))

	update := draftService()
	update.Origin = "Porto"
	err = svc.Update(ctx, 1, created.ID, update)
	assert.Error(t, err)
}

func TestDeleteOnlyRemovesDrafts(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), 1, draftService())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, svc.Transition(ctx, 1, created.ID, StatusConfirmed))

	err = svc.Delete(ctx, 1, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
