package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quickshow/booking-api/api"
	"github.com/quickshow/booking-api/internal/booking"
	"github.com/quickshow/booking-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

func (app *Application) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	showID, err := app.readUUIDParam(r, "showID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	var req api.CreateBookingRequest

	err = app.readJSON(w, r, &req)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(req)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	created, err := app.reservations.Reserve(r.Context(), showID, req.UserId, req.Seats)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptySeatSelection), errors.Is(err, domain.ErrDuplicateSeats):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponseWithErr(w, r, err)
		case errors.Is(err, domain.ErrSeatsUnavailable):
			app.conflictResponse(w, r, err)
		case errors.Is(err, domain.ErrStoreUnavailable):
			app.serviceUnavailableResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	resp := api.BookingResponse{Booking: toApiBooking(created)}

	app.writeJSON(w, http.StatusCreated, resp, nil)
}

func (app *Application) GetBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := app.readUUIDParam(r, "bookingID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	b, err := app.bookingRepo.GetById(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	resp := api.BookingResponse{Booking: toApiBooking(b)}

	app.writeJSON(w, http.StatusOK, resp, nil)
}

func (app *Application) GetBookingsOfUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := app.readStringParam(r, "userID")
	if userID == "" {
		app.notFoundResponse(w, r)
		return
	}

	bookings, err := app.bookingRepo.GetByUserId(r.Context(), userID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.UserBookingsResponse{Bookings: make([]api.Booking, 0, len(bookings))}
	for i := range bookings {
		resp.Bookings = append(resp.Bookings, toApiBooking(&bookings[i]))
	}

	app.writeJSON(w, http.StatusOK, resp, nil)
}

// GetShowSeatsHandler serves the seat map of a show through a short-lived
// Redis cache. Writers invalidate the cache, so a hit is at most
// booking.SeatCacheTTL stale after a missed invalidation.
func (app *Application) GetShowSeatsHandler(w http.ResponseWriter, r *http.Request) {
	showID, err := app.readUUIDParam(r, "showID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	cacheKey := booking.SeatCacheKey(showID)

	if cached, err := app.redis.Get(r.Context(), cacheKey).Result(); err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(cached))
		return
	} else if !errors.Is(err, redis.Nil) {
		app.contextGetLogger(r).Warn("seat cache read failed", "error", err)
	}

	show, err := app.showRegistry.GetById(r.Context(), showID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	resp := api.ShowSeatsResponse{
		ShowId:        show.ID.String(),
		MovieTitle:    show.MovieTitle,
		StartsAt:      show.StartsAt,
		Price:         show.Price,
		OccupiedSeats: show.OccupiedSeats,
	}

	if payload, err := json.Marshal(resp); err == nil {
		err = app.redis.Set(r.Context(), cacheKey, payload, booking.SeatCacheTTL).Err()
		if err != nil {
			app.contextGetLogger(r).Warn("seat cache write failed", "error", err)
		}
	}

	app.writeJSON(w, http.StatusOK, resp, nil)
}

func toApiBooking(b *domain.Booking) api.Booking {
	return api.Booking{
		Id:        b.ID.String(),
		ShowId:    b.ShowID.String(),
		UserId:    b.UserID,
		Seats:     b.Seats,
		Amount:    b.Amount,
		IsPaid:    b.IsPaid,
		CreatedAt: b.CreatedAt,
	}
}
