// Package expiry guarantees that every booking that is still unpaid after
// the grace period releases its seats and disappears. Each booking gets a
// one-shot in-memory timer; a periodic sweep over the store catches bookings
// whose timers were lost to a restart.
package expiry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/quickshow/booking-api/internal/booking"
	"github.com/quickshow/booking-api/internal/domain"
	"github.com/quickshow/booking-api/internal/lock"
	"github.com/redis/go-redis/v9"
)

const (
	expireTimeout = 30 * time.Second
	lockTTL       = time.Minute
	maxAttempts   = 5
)

// LockName is the per-booking lock key that serializes the expiry teardown
// against the payment confirmation path.
func LockName(bookingID uuid.UUID) string {
	return "booking_expiry:" + bookingID.String()
}

type Scheduler struct {
	bookings domain.BookingRepository
	shows    domain.ShowRegistry
	locks    *lock.Manager
	cache    redis.UniversalClient
	logger   *slog.Logger

	gracePeriod   time.Duration
	sweepInterval time.Duration
	retryBackoff  time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewScheduler creates a scheduler. locks and cache may be nil, which
// disables cross-instance locking and cache invalidation respectively.
func NewScheduler(
	bookings domain.BookingRepository,
	shows domain.ShowRegistry,
	locks *lock.Manager,
	cache redis.UniversalClient,
	logger *slog.Logger,
	gracePeriod time.Duration,
	sweepInterval time.Duration,
	retryBackoff time.Duration) *Scheduler {

	return &Scheduler{
		bookings:      bookings,
		shows:         shows,
		locks:         locks,
		cache:         cache,
		logger:        logger,
		gracePeriod:   gracePeriod,
		sweepInterval: sweepInterval,
		retryBackoff:  retryBackoff,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Schedule arms a one-shot timer to check the booking after the grace
// period. The timer only holds the id; the decision is made on a fresh read
// at fire time.
func (s *Scheduler) Schedule(bookingID uuid.UUID) {
	s.arm(bookingID, s.gracePeriod, 1)
}

func (s *Scheduler) arm(bookingID uuid.UUID, delay time.Duration, attempt int) {
	time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
		defer cancel()

		err := s.Expire(ctx, bookingID)
		if err == nil {
			return
		}

		if attempt >= maxAttempts {
			s.logger.Error("giving up on expiry timer, sweep will retry",
				"booking_id", bookingID, "attempt", attempt, "error", err)
			return
		}

		s.logger.Warn("expiry check failed, re-arming",
			"booking_id", bookingID, "attempt", attempt, "error", err)

		s.arm(bookingID, s.retryBackoff, attempt+1)
	})
}

// Expire performs one expiry check. It is safe to call any number of times
// for the same booking: a paid or already-removed booking is left alone, and
// release/delete are idempotent.
func (s *Scheduler) Expire(ctx context.Context, bookingID uuid.UUID) error {
	if s.locks != nil {
		l, err := s.locks.Acquire(ctx, LockName(bookingID), lockTTL)
		if err != nil {
			if errors.Is(err, lock.ErrNotAcquired) {
				// someone else is already handling this booking
				return nil
			}
			return err
		}
		defer l.Release(ctx)
	}

	// Fresh read; the state captured when the timer was armed is ten
	// minutes stale by now.
	bkg, err := s.bookings.GetById(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to fetch booking %s: %w", bookingID, err)
	}

	if bkg.IsPaid {
		return nil
	}

	err = s.shows.ReleaseSeats(ctx, bkg.ShowID, bkg.Seats)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return fmt.Errorf("failed to release seats of booking %s: %w", bookingID, err)
		}

		s.logger.Warn("show missing during seat release", "show_id", bkg.ShowID, "booking_id", bookingID)
	}

	deleted, err := s.bookings.DeleteUnpaid(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to delete expired booking %s: %w", bookingID, err)
	}

	if !deleted {
		return s.undoRelease(ctx, bkg)
	}

	s.invalidateSeatCache(ctx, bkg.ShowID)

	s.logger.Info("expired unpaid booking",
		"booking_id", bookingID, "show_id", bkg.ShowID, "seats", bkg.Seats)

	return nil
}

// undoRelease handles the delete finding no unpaid row after the seats were
// already released. If the booking is gone another instance finished the
// expiry. If it is still there it was paid mid-teardown, so the seats must
// be put back before anyone else claims them.
func (s *Scheduler) undoRelease(ctx context.Context, bkg *domain.Booking) error {
	_, err := s.bookings.GetById(ctx, bkg.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to re-check booking %s: %w", bkg.ID, err)
	}

	err = s.shows.ClaimSeats(ctx, bkg.ShowID, bkg.UserID, bkg.Seats)
	if err != nil {
		return fmt.Errorf("failed to restore seats of paid booking %s: %w", bkg.ID, err)
	}

	s.invalidateSeatCache(ctx, bkg.ShowID)

	s.logger.Warn("booking was paid mid-expiry, seats restored",
		"booking_id", bkg.ID, "show_id", bkg.ShowID, "seats", bkg.Seats)

	return nil
}

// Start runs the recovery sweep until ctx is cancelled or Stop is called.
// The first sweep runs immediately so bookings orphaned by a restart are
// cleaned up without waiting a full interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("starting expiry sweep",
		"grace_period", s.gracePeriod, "sweep_interval", s.sweepInterval)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	defer close(s.doneCh)

	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping expiry sweep", "reason", ctx.Err())
			return
		case <-s.stopCh:
			s.logger.Info("stopping expiry sweep")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Stop terminates the sweep loop and waits for it to exit. Timers already
// armed keep their own lifecycle; their fires remain harmless after Stop.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// Sweep expires every unpaid booking older than the grace period. This is
// the durable half of the scheduler: it needs nothing but the store, so a
// crash can delay a cleanup but never lose it.
func (s *Scheduler) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.gracePeriod)

	ids, err := s.bookings.GetUnpaidCreatedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to scan for overdue bookings", "error", err)
		return
	}

	for _, id := range ids {
		if err := s.Expire(ctx, id); err != nil {
			s.logger.Error("sweep failed to expire booking", "booking_id", id, "error", err)
		}
	}
}

func (s *Scheduler) invalidateSeatCache(ctx context.Context, showID uuid.UUID) {
	if s.cache == nil {
		return
	}

	err := s.cache.Del(ctx, booking.SeatCacheKey(showID)).Err()
	if err != nil {
		s.logger.Warn("failed to invalidate seat cache", "show_id", showID, "error", err)
	}
}
