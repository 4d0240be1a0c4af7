package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/devdanielvaldez/autoclinic-bot/internal/catalog"
)

// PgxPool is the subset of pgxpool.Pool used by the repository.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

const bookingColumns = `id, confirmation_number, customer_name, customer_phone, package_id, package_name,
	vehicle_size, vehicle_info, preferred_date, preferred_time, scheduled_date, total, status, notes, created_at`

// PostgresRepository stores bookings in the bookings table.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository creates a repository backed by a pgx pool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Insert(ctx context.Context, b *Booking) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		b.ID, b.ConfirmationNumber, b.CustomerName, b.CustomerPhone, b.PackageID, b.PackageName,
		string(b.VehicleSize), b.VehicleInfo, b.PreferredDate, b.PreferredTime, toPGDate(b.ScheduledDate),
		b.Total, string(b.Status), b.Notes, b.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateConfirmation
		}
		return fmt.Errorf("bookings: insert: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByConfirmation(ctx context.Context, code string) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE confirmation_number = $1`, code)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: find by confirmation: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) ListByPhone(ctx context.Context, phone string, limit int) ([]Booking, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE customer_phone = $1 ORDER BY created_at DESC LIMIT $2`, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("bookings: list by phone: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: list rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, code string, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE bookings SET status = $2 WHERE confirmation_number = $1`, code, string(status))
	if err != nil {
		return fmt.Errorf("bookings: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b         Booking
		size      string
		status    string
		scheduled pgtype.Date
	)
	if err := row.Scan(
		&b.ID, &b.ConfirmationNumber, &b.CustomerName, &b.CustomerPhone, &b.PackageID, &b.PackageName,
		&size, &b.VehicleInfo, &b.PreferredDate, &b.PreferredTime, &scheduled,
		&b.Total, &status, &b.Notes, &b.CreatedAt,
	); err != nil {
		return nil, err
	}
	b.VehicleSize = catalog.VehicleSize(size)
	b.Status = Status(status)
	if scheduled.Valid {
		t := scheduled.Time
		b.ScheduledDate = &t
	}
	return &b, nil
}

func toPGDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}
