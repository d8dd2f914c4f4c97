package settings

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Get(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// The table holds a single row keyed by id = 1.
func (r *repository) Get(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.db.QueryRow(ctx, `SELECT org_name, billing_email, currency, invoice_due_days, updated_at
		FROM org_settings WHERE id = 1`).Scan(&s.OrgName, &s.BillingEmail, &s.Currency, &s.InvoiceDueDays, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Defaults(), nil
	}
	return s, err
}

func (r *repository) Save(ctx context.Context, s Settings) error {
	_, err := r.db.Exec(ctx, `INSERT INTO org_settings (id, org_name, billing_email, currency, invoice_due_days, updated_at)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET org_name = $1, billing_email = $2, currency = $3, invoice_due_days = $4, updated_at = $5`,
		s.OrgName, s.BillingEmail, s.Currency, s.InvoiceDueDays, time.Now())
	return err
}
