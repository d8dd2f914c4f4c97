package services

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

// ListFilters extends the common listing filters with a status filter.
type ListFilters struct {
	shared.ListFilters
	Status Status
}

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]TransportService, int, error)
	Get(ctx context.Context, id int64) (TransportService, error)
	Create(ctx context.Context, svc TransportService) (TransportService, error)
	Update(ctx context.Context, id int64, svc TransportService) error
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const serviceSelect = `SELECT s.id, s.reference, s.client_id, c.name,
	COALESCE(s.supplier_id, 0), COALESCE(sup.name, ''),
	s.origin, s.destination, s.vehicle, s.driver, s.price, s.status,
	s.scheduled_at, s.created_at, s.updated_at
	FROM transport_services s
	JOIN clients c ON c.id = s.client_id
	LEFT JOIN suppliers sup ON sup.id = s.supplier_id`

func scanService(row pgx.Row) (TransportService, error) {
	var s TransportService
	err := row.Scan(&s.ID, &s.Reference, &s.ClientID, &s.ClientName,
		&s.SupplierID, &s.SupplierName,
		&s.Origin, &s.Destination, &s.Vehicle, &s.Driver, &s.Price, &s.Status,
		&s.ScheduledAt, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]TransportService, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		p := strconv.Itoa(argCount)
		where += ` AND (s.reference ILIKE $` + p + ` OR s.origin ILIKE $` + p + ` OR s.destination ILIKE $` + p + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Status != "" {
		argCount++
		where += ` AND s.status = $` + strconv.Itoa(argCount)
		args = append(args, string(filters.Status))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM transport_services s` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := serviceSelect + where + ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
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

	var list []TransportService
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (TransportService, error) {
	s, err := scanService(r.db.QueryRow(ctx, serviceSelect+` WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return TransportService{}, shared.ErrNotFound
	}
	return s, err
}

func (r *repository) Create(ctx context.Context, svc TransportService) (TransportService, error) {
	query := `INSERT INTO transport_services
		(reference, client_id, supplier_id, origin, destination, vehicle, driver, price, status, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(ctx, query,
		svc.Reference, svc.ClientID, nullableID(svc.SupplierID),
		svc.Origin, svc.Destination, svc.Vehicle, svc.Driver,
		svc.Price, string(svc.Status), svc.ScheduledAt, now, now).Scan(&svc.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return TransportService{}, shared.ErrDuplicate
		}
		return TransportService{}, err
	}
	svc.CreatedAt = now
	svc.UpdatedAt = now
	return svc, nil
}

func (r *repository) Update(ctx context.Context, id int64, svc TransportService) error {
	query := `UPDATE transport_services SET client_id = $1, supplier_id = $2, origin = $3, destination = $4,
		vehicle = $5, driver = $6, price = $7, scheduled_at = $8, updated_at = $9 WHERE id = $10`
	tag, err := r.db.Exec(ctx, query,
		svc.ClientID, nullableID(svc.SupplierID), svc.Origin, svc.Destination,
		svc.Vehicle, svc.Driver, svc.Price, svc.ScheduledAt, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateStatus applies the transition only when the row is still in the
// expected source status, so concurrent actors cannot double-apply it.
func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	query := `UPDATE transport_services SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	tag, err := r.db.Exec(ctx, query, string(to), time.Now(), id, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM transport_services WHERE id = $1 AND status = $2`, id, string(StatusDraft))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func nullableID(id int64) interface{} {
	if id <= 0 {
		return nil
	}
	return id
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func sortOrder(sortBy, sortDir string) string {
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	switch sortBy {
	case "reference":
		return "s.reference " + dir
	case "status":
		return "s.status " + dir
	case "scheduled_at":
		return "s.scheduled_at " + dir
	default:
		return "s.created_at " + dir
	}
}
