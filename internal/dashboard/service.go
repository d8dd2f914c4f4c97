package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"
)

// monthsShown is the revenue history window rendered on the dashboard.
const monthsShown = 6

type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "summary")
	if err != nil {
		return Summary{}, err
	}
	var out Summary
	err = s.fetch(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.Summary(ctx, time.Now())
	})
	return out, err
}

func (s *Service) Revenue(ctx context.Context) ([]RevenuePoint, error) {
	now := time.Now()
	since := monthStart(now, -(monthsShown - 1))
	key, err := s.cache.BuildKey(ctx, "dashboard", "revenue", since.Format("2006-01"))
	if err != nil {
		return nil, err
	}
	var raw []RevenuePoint
	err = s.fetch(ctx, key, &raw, func(ctx context.Context) (interface{}, error) {
		return s.repo.RevenueSince(ctx, since)
	})
	if err != nil {
		return nil, err
	}
	return fillMonths(raw, since, now), nil
}

func (s *Service) StatusCounts(ctx context.Context) ([]StatusCount, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "statuses")
	if err != nil {
		return nil, err
	}
	var out []StatusCount
	err = s.fetch(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.ServiceStatusCounts(ctx)
	})
	return out, err
}

// Invalidate drops all cached dashboard data.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Warm populates the cache so the first request after an invalidation is fast.
func (s *Service) Warm(ctx context.Context) error {
	if _, err := s.Summary(ctx); err != nil {
		return err
	}
	if _, err := s.Revenue(ctx); err != nil {
		return err
	}
	_, err := s.StatusCounts(ctx)
	return err
}

// fetch collapses concurrent loads of the same key into a single repository
// query. The shared result is raw JSON so every waiter can decode its own copy.
func (s *Service) fetch(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		var raw json.RawMessage
		if err := s.cache.FetchJSON(ctx, key, &raw, loader); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.(json.RawMessage), dest)
}

// monthStart returns the first day of the month offset months from t.
func monthStart(t time.Time, offset int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(offset), 1, 0, 0, 0, 0, t.Location())
}

// fillMonths pads missing months with zero points so the chart axis is continuous.
func fillMonths(points []RevenuePoint, from, to time.Time) []RevenuePoint {
	byMonth := make(map[string]RevenuePoint, len(points))
	for _, p := range points {
		byMonth[p.Month] = p
	}
	var out []RevenuePoint
	for m := monthStart(from, 0); !m.After(to); m = monthStart(m, 1) {
		label := m.Format("2006-01")
		if p, ok := byMonth[label]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, RevenuePoint{Month: label})
	}
	return out
}
