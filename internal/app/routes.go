package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(app.requestLogger)
	r.Use(middleware.Logger)
	r.Use(app.recoverPanic)
	r.Use(otelchi.Middleware("booking-api", otelchi.WithChiRoutes(r)))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.notFoundResponse(w, r)
	})

	r.Get("/health", app.GetHealth)

	r.Route("/shows/{showID}", func(r chi.Router) {
		r.Post("/bookings", app.CreateBookingHandler)
		r.Get("/seats", app.GetShowSeatsHandler)
	})

	r.Route("/bookings/{bookingID}", func(r chi.Router) {
		r.Get("/", app.GetBookingHandler)
		r.Post("/checkout", app.CreateCheckoutSessionHandler)
	})

	r.Get("/users/{userID}/bookings", app.GetBookingsOfUserHandler)

	r.Post("/webhooks/payments", app.StripeWebhookHandler)
	r.Post("/webhooks/identity", app.IdentityWebhookHandler)

	return r
}
