package app

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/quickshow/booking-api/api"
	"github.com/quickshow/booking-api/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const stripeWebhookMaxBytes = 65536

// StripeWebhookHandler receives payment events from Stripe. Signature
// verification gates everything else; unrecognised event types are
// acknowledged so Stripe does not retry them forever.
func (app *Application) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, stripeWebhookMaxBytes)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), app.config.Stripe.WebhookSecret)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	logger := app.contextGetLogger(r)

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession

		err = json.Unmarshal(event.Data.Raw, &session)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}

		bookingID, err := uuid.Parse(session.Metadata["booking_id"])
		if err != nil {
			logger.Error("checkout session carries no usable booking id",
				"session_id", session.ID, "error", err)
			w.WriteHeader(http.StatusOK)
			return
		}

		err = app.notifier.OnPaymentSucceeded(r.Context(), bookingID)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
	default:
		logger.Info("ignoring stripe event", "type", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

// IdentityWebhookHandler syncs user records pushed by the external identity
// provider.
func (app *Application) IdentityWebhookHandler(w http.ResponseWriter, r *http.Request) {
	var event api.IdentityEvent

	err := app.readJSON(w, r, &event)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(event)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	switch event.Type {
	case "user.created", "user.updated":
		user := &domain.User{
			ID:    event.Data.Id,
			Name:  event.Data.Name,
			Email: event.Data.Email,
		}

		err = app.userRepo.Upsert(r.Context(), user)
	case "user.deleted":
		err = app.userRepo.Delete(r.Context(), event.Data.Id)
	}

	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
