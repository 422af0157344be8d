// Package booking orchestrates a reservation request end to end: claim the
// seats, persist the booking, arm its expiry. No caller ever observes a
// partial state; if persisting the booking fails after the seats were
// claimed, the claim is compensated by releasing them again.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/quickshow/booking-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SeatCacheTTL bounds how stale the seat availability endpoint may serve.
const SeatCacheTTL = 30 * time.Second

// ExpiryScheduler receives the id of every freshly created booking and is
// responsible for its grace-period cleanup.
type ExpiryScheduler interface {
	Schedule(bookingID uuid.UUID)
}

type Service struct {
	shows     domain.ShowRegistry
	bookings  domain.BookingRepository
	scheduler ExpiryScheduler
	cache     redis.UniversalClient
	logger    *slog.Logger
}

func NewService(
	shows domain.ShowRegistry,
	bookings domain.BookingRepository,
	scheduler ExpiryScheduler,
	cache redis.UniversalClient,
	logger *slog.Logger) *Service {

	return &Service{
		shows:     shows,
		bookings:  bookings,
		scheduler: scheduler,
		cache:     cache,
		logger:    logger,
	}
}

// Reserve atomically claims the requested seats and creates the booking. The
// returned booking is already scheduled for expiry; it stays alive only if a
// payment confirmation lands within the grace period.
func (s *Service) Reserve(
	ctx context.Context,
	showID uuid.UUID,
	userID string,
	seats []string) (*domain.Booking, error) {

	if len(seats) == 0 {
		return nil, domain.ErrEmptySeatSelection
	}

	// The claim dedupes labels but the price is per requested seat, so a
	// repeated label would charge for a seat that was only claimed once.
	seen := make(map[string]struct{}, len(seats))
	for _, seat := range seats {
		if _, dup := seen[seat]; dup {
			return nil, domain.ErrDuplicateSeats
		}
		seen[seat] = struct{}{}
	}

	show, err := s.shows.GetById(ctx, showID)
	if err != nil {
		return nil, err
	}

	err = s.shows.ClaimSeats(ctx, showID, userID, seats)
	if err != nil {
		return nil, err
	}

	booking := domain.NewBooking(show, userID, seats)

	err = s.bookings.Create(ctx, &booking)
	if err != nil {
		// The seats are claimed but the booking does not exist; undo the
		// claim before surfacing the failure. If the compensation itself
		// fails the seats leak until an operator intervenes, so shout.
		releaseErr := s.shows.ReleaseSeats(ctx, showID, seats)
		if releaseErr != nil {
			s.logger.Error("failed to release seats after booking creation failure",
				"show_id", showID, "seats", seats, "error", releaseErr)
		}

		// A foreign key violation means the show vanished mid-flight; that
		// is the caller's not-found, not a store outage.
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	s.InvalidateSeatCache(ctx, showID)

	s.scheduler.Schedule(booking.ID)

	s.logger.Info("seats reserved",
		"booking_id", booking.ID, "show_id", showID, "user_id", userID, "seats", seats)

	return &booking, nil
}

// InvalidateSeatCache drops the cached availability snapshot for a show.
// Called after every occupancy change; a failed delete only means a stale
// read for at most the cache TTL, so it is logged and ignored.
func (s *Service) InvalidateSeatCache(ctx context.Context, showID uuid.UUID) {
	if s.cache == nil {
		return
	}

	err := s.cache.Del(ctx, SeatCacheKey(showID)).Err()
	if err != nil {
		s.logger.Warn("failed to invalidate seat cache", "show_id", showID, "error", err)
	}
}

func SeatCacheKey(showID uuid.UUID) string {
	return fmt.Sprintf("show_seats:%s", showID)
}
