package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quickshow/booking-api/internal/domain"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

func (p *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, show_id, user_id, seats, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := p.db.QueryRow(
		ctx,
		query,
		booking.ID,
		booking.ShowID,
		booking.UserID,
		booking.Seats,
		booking.Amount).Scan(&booking.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return domain.ErrRecordNotFound
		}

		return err
	}

	return nil
}

func (p *PostgresBookingRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `
		SELECT id, show_id, user_id, seats, amount, is_paid, created_at
		FROM bookings
		WHERE id = $1
	`

	var booking domain.Booking

	err := p.db.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.ShowID,
		&booking.UserID,
		&booking.Seats,
		&booking.Amount,
		&booking.IsPaid,
		&booking.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &booking, nil
}

func (p *PostgresBookingRepository) GetByUserId(ctx context.Context, userID string) ([]domain.Booking, error) {
	query := `
		SELECT id, show_id, user_id, seats, amount, is_paid, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := p.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		var booking domain.Booking

		err = rows.Scan(
			&booking.ID,
			&booking.ShowID,
			&booking.UserID,
			&booking.Seats,
			&booking.Amount,
			&booking.IsPaid,
			&booking.CreatedAt,
		)

		if err != nil {
			return nil, err
		}

		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// MarkPaid flips is_paid in a single guarded UPDATE and reports whether this
// call performed the transition. The guard makes the payment path and the
// expiry path commute: whichever commits first wins, the other observes it.
func (p *PostgresBookingRepository) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET is_paid = true
		WHERE id = $1
		AND NOT is_paid
	`

	tag, err := p.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool

	err = p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}

	if !exists {
		return false, domain.ErrRecordNotFound
	}

	return false, nil
}

// DeleteUnpaid deletes the booking with the same guard MarkPaid uses, so a
// payment that commits between a caller's read and this delete keeps the row.
func (p *PostgresBookingRepository) DeleteUnpaid(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		DELETE FROM bookings
		WHERE id = $1
		AND NOT is_paid
	`

	tag, err := p.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (p *PostgresBookingRepository) GetUnpaidCreatedBefore(
	ctx context.Context,
	cutoff time.Time) ([]uuid.UUID, error) {

	query := `
		SELECT id
		FROM bookings
		WHERE NOT is_paid AND created_at < $1
		ORDER BY created_at
	`

	rows, err := p.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)

	for rows.Next() {
		var id uuid.UUID

		if err = rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}
