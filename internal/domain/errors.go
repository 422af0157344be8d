package domain

import "errors"

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrSeatsUnavailable   = errors.New("seat(s) are already taken")
	ErrEmptySeatSelection = errors.New("no seats selected")
	ErrDuplicateSeats     = errors.New("duplicate seat labels in selection")
	ErrBookingAlreadyPaid = errors.New("booking is already paid")
	ErrStoreUnavailable   = errors.New("store temporarily unavailable")
)
