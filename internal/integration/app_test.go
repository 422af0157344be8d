package integration_test

import (
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quickshow/booking-api/internal/app"
	"github.com/quickshow/booking-api/internal/booking"
	"github.com/quickshow/booking-api/internal/expiry"
	"github.com/quickshow/booking-api/internal/lock"
	"github.com/quickshow/booking-api/internal/mailer"
	"github.com/quickshow/booking-api/internal/mocks"
	"github.com/quickshow/booking-api/internal/notifier"
	"github.com/quickshow/booking-api/internal/repository"
	appvalidator "github.com/quickshow/booking-api/internal/validator"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App             *app.Application
	DB              *pgxpool.Pool
	Redis           redis.UniversalClient
	Mailer          *mailer.MockMailer
	PaymentProvider *mocks.MockPaymentProvider
	Scheduler       *expiry.Scheduler
	Notifier        *notifier.Notifier
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	validator := appvalidator.NewValidator()
	mockMailer := mailer.NewMockMailer()
	paymentProvider := new(mocks.MockPaymentProvider)

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	userRepo := repository.NewPostgresUserRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)
	showRegistry := repository.NewPostgresShowRegistry(db)

	locks := lock.NewManager(redisClient)

	scheduler := expiry.NewScheduler(
		bookingRepo,
		showRegistry,
		locks,
		redisClient,
		logger,
		cfg.GracePeriod,
		cfg.SweepInterval,
		cfg.RetryBackoff,
	)

	reservations := booking.NewService(showRegistry, bookingRepo, scheduler, redisClient, logger)

	paymentNotifier := notifier.New(bookingRepo, userRepo, showRegistry, mockMailer, locks, logger)

	application := app.NewApp(
		cfg,
		logger,
		db,
		redisClient,
		validator,
		mockMailer,
		userRepo,
		bookingRepo,
		showRegistry,
		paymentProvider,
		reservations,
		paymentNotifier,
		scheduler,
	)

	return &TestApp{
		App:             application,
		DB:              db,
		Redis:           redisClient,
		Mailer:          mockMailer,
		PaymentProvider: paymentProvider,
		Scheduler:       scheduler,
		Notifier:        paymentNotifier,
	}, nil
}
