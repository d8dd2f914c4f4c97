package invoices

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haulboard/haulboard/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Invoice, int, error)
	Get(ctx context.Context, id int64) (Invoice, error)
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
	NextSequence(ctx context.Context, year int) (int64, error)
	All(ctx context.Context) ([]Invoice, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const invoiceSelect = `SELECT i.id, i.number, i.service_id, s.reference, s.client_id, c.name,
	i.amount, i.tax, i.total, i.status, i.issued_at, i.due_at, i.created_at, i.updated_at
	FROM invoices i
	JOIN transport_services s ON s.id = i.service_id
	JOIN clients c ON c.id = s.client_id`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.ServiceID, &inv.ServiceReference, &inv.ClientID, &inv.ClientName,
		&inv.Amount, &inv.Tax, &inv.Total, &inv.Status, &inv.IssuedAt, &inv.DueAt, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Invoice, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		p := strconv.Itoa(argCount)
		where += ` AND (i.number ILIKE $` + p + ` OR c.name ILIKE $` + p + `)`
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM invoices i JOIN transport_services s ON s.id = i.service_id JOIN clients c ON c.id = s.client_id` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := invoiceSelect + where + ` ORDER BY i.issued_at DESC, i.id DESC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, inv)
	}
	return list, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, invoiceSelect+` WHERE i.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, err
}

func (r *repository) Create(ctx context.Context, inv Invoice) (Invoice, error) {
	query := `INSERT INTO invoices (number, service_id, amount, tax, total, status, issued_at, due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(ctx, query,
		inv.Number, inv.ServiceID, inv.Amount, inv.Tax, inv.Total,
		string(inv.Status), inv.IssuedAt, inv.DueAt, now, now).Scan(&inv.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Invoice{}, shared.ErrDuplicate
		}
		return Invoice{}, err
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now
	return inv, nil
}

// UpdateStatus succeeds only when the row is still in the expected source status.
func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(to), time.Now(), id, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// NextSequence returns the next invoice number for the given year using a
// per-year counter row.
func (r *repository) NextSequence(ctx context.Context, year int) (int64, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `INSERT INTO invoice_sequences (year, last_value) VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_value = invoice_sequences.last_value + 1
		RETURNING last_value`, year).Scan(&seq)
	return seq, err
}

// All returns every invoice for CSV export, newest first.
func (r *repository) All(ctx context.Context) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, invoiceSelect+` ORDER BY i.issued_at DESC, i.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}
