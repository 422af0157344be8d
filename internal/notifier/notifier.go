// Package notifier reacts to payment-succeeded events: it marks the booking
// paid, which shields it from expiry, and sends the confirmation email.
// Notification is best effort; payment confirmation is authoritative even
// when the mail transport fails.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quickshow/booking-api/internal/domain"
	"github.com/quickshow/booking-api/internal/expiry"
	"github.com/quickshow/booking-api/internal/lock"
	"github.com/quickshow/booking-api/internal/mailer"
)

const (
	confirmationTemplate = "booking_confirmation.tmpl"
	lockTTL              = time.Minute
)

type Notifier struct {
	bookings domain.BookingRepository
	users    domain.UserRepository
	shows    domain.ShowRegistry
	mailer   mailer.Mailer
	locks    *lock.Manager
	logger   *slog.Logger

	wg sync.WaitGroup
}

// New creates a notifier. locks may be nil, which disables the per-booking
// serialization against the expiry teardown.
func New(
	bookings domain.BookingRepository,
	users domain.UserRepository,
	shows domain.ShowRegistry,
	mailer mailer.Mailer,
	locks *lock.Manager,
	logger *slog.Logger) *Notifier {

	return &Notifier{
		bookings: bookings,
		users:    users,
		shows:    shows,
		mailer:   mailer,
		locks:    locks,
		logger:   logger,
	}
}

// OnPaymentSucceeded handles one delivery of the external payment event.
// Deliveries are at least once: a replay finds the booking already paid and
// does nothing. A missing booking, user or show is logged and swallowed --
// payment events legitimately race the expiry of the booking they pay for.
func (n *Notifier) OnPaymentSucceeded(ctx context.Context, bookingID uuid.UUID) error {
	logger := n.logger.With("booking_id", bookingID)

	// The expiry teardown holds this lock across its release and delete, so
	// taking it here keeps the payment from landing mid-teardown. A failed
	// acquire surfaces as an error and the event source redelivers.
	if n.locks != nil {
		l, err := n.locks.Acquire(ctx, expiry.LockName(bookingID), lockTTL)
		if err != nil {
			if errors.Is(err, lock.ErrNotAcquired) {
				return fmt.Errorf("booking %s is being expired, retry later", bookingID)
			}
			return err
		}
		defer l.Release(ctx)
	}

	booking, err := n.bookings.GetById(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Warn("payment event for missing booking, probably already expired")
			return nil
		}
		return err
	}

	user, err := n.users.GetById(ctx, booking.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Error("booking references a missing user, skipping confirmation", "user_id", booking.UserID)
			return nil
		}
		return err
	}

	show, err := n.shows.GetById(ctx, booking.ShowID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Error("booking references a missing show, skipping confirmation", "show_id", booking.ShowID)
			return nil
		}
		return err
	}

	first, err := n.bookings.MarkPaid(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			// expiry removed the booking between the fetch and the update
			logger.Warn("booking disappeared before it could be marked paid")
			return nil
		}
		return err
	}

	if !first {
		logger.Info("duplicate payment event, booking already paid")
		return nil
	}

	logger.Info("booking marked as paid", "user_id", user.ID, "show_id", show.ID)

	data := map[string]any{
		"userName":   user.Name,
		"movieTitle": show.MovieTitle,
		"showDate":   show.StartsAt.Format("Monday, January 2, 2006"),
		"showTime":   show.StartsAt.Format("15:04"),
		"seats":      strings.Join(booking.Seats, ", "),
		"amount":     booking.Amount.StringFixed(2),
	}

	n.wg.Add(1)

	go func() {
		defer n.wg.Done()

		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic occurred during sending confirmation mail", "panic", r)
			}
		}()

		err := n.mailer.Send(user.Email, confirmationTemplate, data)
		if err != nil {
			logger.Error("failed to send confirmation email", "error", err)
		} else {
			logger.Info("confirmation email sent", "recipient", user.Email)
		}
	}()

	return nil
}

// Wait blocks until all in-flight notification sends have finished. Used on
// shutdown and by tests.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
