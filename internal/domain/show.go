package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Show is one scheduled screening. OccupiedSeats maps a seat label to the id
// of the user currently holding it; a label that is absent is free.
type Show struct {
	ID            uuid.UUID
	MovieTitle    string
	StartsAt      time.Time
	Price         decimal.Decimal
	OccupiedSeats map[string]string
	CreatedAt     time.Time
}

// ShowRegistry is the single source of truth for seat occupancy. ClaimSeats
// must check and mark the requested seats in one atomic step, so two
// overlapping claims for the same show can never both succeed.
type ShowRegistry interface {
	GetById(ctx context.Context, showID uuid.UUID) (*Show, error)

	// ClaimSeats marks every seat in seats as held by userID. It fails with
	// ErrRecordNotFound if the show does not exist and with
	// ErrSeatsUnavailable if any requested seat is already held, in which
	// case no seat is claimed at all.
	ClaimSeats(ctx context.Context, showID uuid.UUID, userID string, seats []string) error

	// ReleaseSeats frees the given seats regardless of holder. Releasing an
	// already-free seat is a no-op.
	ReleaseSeats(ctx context.Context, showID uuid.UUID, seats []string) error
}
