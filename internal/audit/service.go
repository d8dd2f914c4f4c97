package audit

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Entry, error) {
	return s.repo.List(ctx, filters)
}

// WriteCSV streams the filtered entries as CSV.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, filters ListFilters) error {
	filters.Limit = 10000
	entries, err := s.repo.List(ctx, filters)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"at", "actor_id", "actor_email", "action", "entity", "entity_id"}); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			e.At.Format(time.RFC3339),
			strconv.FormatInt(e.ActorID, 10),
			e.ActorEmail,
			e.Action,
			e.Entity,
			e.EntityID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Prune removes entries older than the retention window.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, time.Now().Add(-retention))
}
