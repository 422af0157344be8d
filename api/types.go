// Package api defines the request and response types exchanged over the HTTP
// surface.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type CreateBookingRequest struct {
	UserId string   `json:"userId" validate:"required"`
	Seats  []string `json:"seats" validate:"required,min=1,max=10,unique,dive,seat_label"`
}

type Booking struct {
	Id        string          `json:"id"`
	ShowId    string          `json:"showId"`
	UserId    string          `json:"userId"`
	Seats     []string        `json:"seats"`
	Amount    decimal.Decimal `json:"amount"`
	IsPaid    bool            `json:"isPaid"`
	CreatedAt time.Time       `json:"createdAt"`
}

type BookingResponse struct {
	Booking Booking `json:"booking"`
}

type UserBookingsResponse struct {
	Bookings []Booking `json:"bookings"`
}

type ShowSeatsResponse struct {
	ShowId        string            `json:"showId"`
	MovieTitle    string            `json:"movieTitle"`
	StartsAt      time.Time         `json:"startsAt"`
	Price         decimal.Decimal   `json:"price"`
	OccupiedSeats map[string]string `json:"occupiedSeats"`
}

type CheckoutSessionResponse struct {
	RedirectUrl string `json:"redirectUrl"`
}

// IdentityEvent is the payload the identity provider posts on user lifecycle
// changes. Data is empty for user.deleted.
type IdentityEvent struct {
	Type string           `json:"type" validate:"required,oneof=user.created user.updated user.deleted"`
	Data IdentityUserData `json:"data"`
}

type IdentityUserData struct {
	Id    string `json:"id" validate:"required"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
