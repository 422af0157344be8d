package app

import (
	"errors"
	"net/http"

	"github.com/quickshow/booking-api/api"
	"github.com/quickshow/booking-api/internal/domain"
)

// CreateCheckoutSessionHandler creates a Stripe checkout session for an
// unpaid booking and returns the hosted payment page URL.
func (app *Application) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := app.readUUIDParam(r, "bookingID")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	booking, err := app.bookingRepo.GetById(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if booking.IsPaid {
		app.conflictResponse(w, r, domain.ErrBookingAlreadyPaid)
		return
	}

	user, err := app.userRepo.GetById(r.Context(), booking.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponseWithErr(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	show, err := app.showRegistry.GetById(r.Context(), booking.ShowID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponseWithErr(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	session, err := app.paymentProvider.CreateCheckoutSession(booking, user, show)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.CheckoutSessionResponse{RedirectUrl: session.URL}

	app.writeJSON(w, http.StatusOK, resp, nil)
}
