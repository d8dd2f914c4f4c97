package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	summary     Summary
	revenue     []RevenuePoint
	statuses    []StatusCount
	summaryHits int
}

func (s *stubRepository) Summary(ctx context.Context, now time.Time) (Summary, error) {
	s.summaryHits++
	return s.summary, nil
}

func (s *stubRepository) RevenueSince(ctx context.Context, since time.Time) ([]RevenuePoint, error) {
	return s.revenue, nil
}

func (s *stubRepository) ServiceStatusCounts(ctx context.Context) ([]StatusCount, error) {
	return s.statuses, nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewCache(client, time.Minute))
}

func TestFillMonthsPadsGaps(t *testing.T) {
	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)

	out := fillMonths([]RevenuePoint{
		{Month: "2026-04", Invoiced: 1200, Paid: 800},
		{Month: "2026-07", Invoiced: 300},
	}, from, to)

	require.Len(t, out, 6)
	assert.Equal(t, "2026-03", out[0].Month)
	assert.Zero(t, out[0].Invoiced)
	assert.Equal(t, 1200.0, out[1].Invoiced)
	assert.Equal(t, "2026-08", out[5].Month)
}

func TestFillMonthsCrossesYearBoundary(t *testing.T) {
	from := time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	out := fillMonths(nil, from, to)

	require.Len(t, out, 4)
	assert.Equal(t, "2025-11", out[0].Month)
	assert.Equal(t, "2025-12", out[1].Month)
	assert.Equal(t, "2026-01", out[2].Month)
	assert.Equal(t, "2026-02", out[3].Month)
}

func TestMonthStartNegativeOffset(t *testing.T) {
	now := time.Date(2026, time.January, 20, 13, 0, 0, 0, time.UTC)
	got := monthStart(now, -2)
	assert.Equal(t, time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestSummaryUsesCacheOnRepeat(t *testing.T) {
	repo := &stubRepository{summary: Summary{ActiveServices: 4, OpenInvoices: 2}}
	svc := newTestService(t, repo)

	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, first.ActiveServices)

	second, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.summaryHits)
}

func TestInvalidateForcesReload(t *testing.T) {
	repo := &stubRepository{summary: Summary{ActiveServices: 1}}
	svc := newTestService(t, repo)

	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)

	repo.summary.ActiveServices = 9
	require.NoError(t, svc.Invalidate(ctx))

	reloaded, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, reloaded.ActiveServices)
	assert.Equal(t, 2, repo.summaryHits)
}
