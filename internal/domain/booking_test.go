package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewBooking(t *testing.T) {
	show := &Show{
		ID:    uuid.New(),
		Price: decimal.RequireFromString("12.50"),
	}

	tests := []struct {
		name       string
		seats      []string
		wantAmount string
	}{
		{
			name:       "single seat costs the show price",
			seats:      []string{"A1"},
			wantAmount: "12.50",
		},
		{
			name:       "amount scales with the number of seats",
			seats:      []string{"A1", "A2", "A3"},
			wantAmount: "37.50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := NewBooking(show, "user-1", tt.seats)

			assert.NotEqual(t, uuid.Nil, booking.ID)
			assert.Equal(t, show.ID, booking.ShowID)
			assert.Equal(t, "user-1", booking.UserID)
			assert.Equal(t, tt.seats, booking.Seats)
			assert.False(t, booking.IsPaid)
			assert.True(t, booking.Amount.Equal(decimal.RequireFromString(tt.wantAmount)),
				"amount = %s, want %s", booking.Amount, tt.wantAmount)
		})
	}
}
