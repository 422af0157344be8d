package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking is one user's reservation against one show. Seats and amount are
// fixed at creation time; IsPaid transitions to true exactly once and is
// never reverted.
type Booking struct {
	ID        uuid.UUID
	ShowID    uuid.UUID
	UserID    string
	Seats     []string
	Amount    decimal.Decimal
	IsPaid    bool
	CreatedAt time.Time
}

func NewBooking(show *Show, userID string, seats []string) Booking {
	return Booking{
		ID:     uuid.New(),
		ShowID: show.ID,
		UserID: userID,
		Seats:  seats,
		Amount: show.Price.Mul(decimal.NewFromInt(int64(len(seats)))),
	}
}

type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	GetById(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByUserId(ctx context.Context, userID string) ([]Booking, error)

	// MarkPaid sets IsPaid and reports whether this call performed the
	// transition. Marking an already-paid booking is harmless and returns
	// false.
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)

	// DeleteUnpaid removes the booking only while it is still unpaid and
	// reports whether a row was deleted. A paid or missing booking is left
	// untouched, so a payment that commits after the caller's last read
	// can never be torn down.
	DeleteUnpaid(ctx context.Context, id uuid.UUID) (bool, error)

	// GetUnpaidCreatedBefore returns the ids of unpaid bookings created
	// before the cutoff, oldest first.
	GetUnpaidCreatedBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}
