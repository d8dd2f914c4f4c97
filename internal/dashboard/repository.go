package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Summary(ctx context.Context, now time.Time) (Summary, error)
	RevenueSince(ctx context.Context, since time.Time) ([]RevenuePoint, error)
	ServiceStatusCounts(ctx context.Context) ([]StatusCount, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Summary(ctx context.Context, now time.Time) (Summary, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var s Summary
	err := r.db.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM transport_services WHERE status IN ('confirmed', 'in_transit')),
		(SELECT COUNT(*) FROM invoices WHERE status IN ('issued', 'approved')),
		(SELECT COALESCE(SUM(total), 0) FROM invoices WHERE status <> 'void' AND issued_at >= $1),
		(SELECT COUNT(*) FROM invoices WHERE status IN ('issued', 'approved') AND due_at < $2)`,
		monthStart, now).Scan(&s.ActiveServices, &s.OpenInvoices, &s.RevenueMTD, &s.OverdueInvoices)
	return s, err
}

// RevenueSince returns per-month invoiced and paid totals from the cutoff on.
func (r *repository) RevenueSince(ctx context.Context, since time.Time) ([]RevenuePoint, error) {
	rows, err := r.db.Query(ctx, `SELECT to_char(date_trunc('month', issued_at), 'YYYY-MM') AS month,
		COALESCE(SUM(total) FILTER (WHERE status <> 'void'), 0),
		COALESCE(SUM(total) FILTER (WHERE status = 'paid'), 0)
		FROM invoices WHERE issued_at >= $1
		GROUP BY 1 ORDER BY 1`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []RevenuePoint
	for rows.Next() {
		var p RevenuePoint
		if err := rows.Scan(&p.Month, &p.Invoiced, &p.Paid); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *repository) ServiceStatusCounts(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM transport_services GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
