package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quickshow/booking-api/internal/domain"
)

type PostgresShowRegistry struct {
	db *pgxpool.Pool
}

func NewPostgresShowRegistry(db *pgxpool.Pool) *PostgresShowRegistry {
	return &PostgresShowRegistry{
		db: db,
	}
}

func (p *PostgresShowRegistry) GetById(ctx context.Context, showID uuid.UUID) (*domain.Show, error) {
	query := `
		SELECT id, movie_title, starts_at, price, occupied_seats, created_at
		FROM shows
		WHERE id = $1
	`

	var show domain.Show

	err := p.db.QueryRow(ctx, query, showID).Scan(
		&show.ID,
		&show.MovieTitle,
		&show.StartsAt,
		&show.Price,
		&show.OccupiedSeats,
		&show.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &show, nil
}

// ClaimSeats appends the claim to the show's occupancy map in a single
// guarded UPDATE. The check and the mark happen in one statement, so
// overlapping claims for the same show serialize on the row and at most one
// of them can observe every requested seat as free.
func (p *PostgresShowRegistry) ClaimSeats(
	ctx context.Context,
	showID uuid.UUID,
	userID string,
	seats []string) error {

	claim := make(map[string]string, len(seats))
	for _, seat := range seats {
		claim[seat] = userID
	}

	claimJSON, err := json.Marshal(claim)
	if err != nil {
		return err
	}

	query := `
		UPDATE shows
		SET occupied_seats = occupied_seats || $2::jsonb
		WHERE id = $1
		AND NOT (occupied_seats ?| $3::text[])
	`

	tag, err := p.db.Exec(ctx, query, showID, claimJSON, seats)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		exists, err := p.showExists(ctx, showID)
		if err != nil {
			return err
		}

		if !exists {
			return domain.ErrRecordNotFound
		}

		return domain.ErrSeatsUnavailable
	}

	return nil
}

// ReleaseSeats removes the labels from the occupancy map regardless of
// holder. Seats that are already free are simply absent from the map, so a
// repeated release is a no-op.
func (p *PostgresShowRegistry) ReleaseSeats(ctx context.Context, showID uuid.UUID, seats []string) error {
	query := `
		UPDATE shows
		SET occupied_seats = occupied_seats - $2::text[]
		WHERE id = $1
	`

	tag, err := p.db.Exec(ctx, query, showID, seats)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresShowRegistry) showExists(ctx context.Context, showID uuid.UUID) (bool, error) {
	var exists bool

	err := p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shows WHERE id = $1)`, showID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}
