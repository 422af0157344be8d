package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quickshow/booking-api/internal/booking"
	"github.com/quickshow/booking-api/internal/domain"
	"github.com/quickshow/booking-api/internal/expiry"
	"github.com/quickshow/booking-api/internal/lock"
	"github.com/quickshow/booking-api/internal/mailer"
	"github.com/quickshow/booking-api/internal/notifier"
	"github.com/quickshow/booking-api/internal/payment"
	"github.com/quickshow/booking-api/internal/repository"
	appvalidator "github.com/quickshow/booking-api/internal/validator"
	"github.com/quickshow/booking-api/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
)

var (
	version = vcs.Version()
)

type Config struct {
	Port             int
	Env              string
	OtelCollectorUrl string
	GracePeriod      time.Duration
	SweepInterval    time.Duration
	RetryBackoff     time.Duration
	DB               DBConfig
	Redis            RedisConfig
	SMTP             SMTPConfig
	Stripe           StripeConfig
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessUrl    string
	FailureUrl    string
}

// ReservationService is the slice of the booking service the HTTP layer
// needs.
type ReservationService interface {
	Reserve(ctx context.Context, showID uuid.UUID, userID string, seats []string) (*domain.Booking, error)
}

// PaymentNotifier consumes payment-succeeded events.
type PaymentNotifier interface {
	OnPaymentSucceeded(ctx context.Context, bookingID uuid.UUID) error
}

type Application struct {
	config    Config
	logger    *slog.Logger
	db        *pgxpool.Pool
	redis     redis.UniversalClient
	validator *validator.Validate
	mailer    mailer.Mailer

	userRepo     domain.UserRepository
	bookingRepo  domain.BookingRepository
	showRegistry domain.ShowRegistry

	paymentProvider domain.PaymentProvider
	reservations    ReservationService
	notifier        PaymentNotifier
	scheduler       *expiry.Scheduler
}

// NewApp assembles an Application from pre-built components. Production
// wiring lives in NewApplication; tests inject their own pieces here.
func NewApp(
	cfg Config,
	logger *slog.Logger,
	db *pgxpool.Pool,
	redisClient redis.UniversalClient,
	validator *validator.Validate,
	mailer mailer.Mailer,
	userRepo domain.UserRepository,
	bookingRepo domain.BookingRepository,
	showRegistry domain.ShowRegistry,
	paymentProvider domain.PaymentProvider,
	reservations ReservationService,
	notifier PaymentNotifier,
	scheduler *expiry.Scheduler) *Application {

	return &Application{
		config:          cfg,
		logger:          logger,
		db:              db,
		redis:           redisClient,
		validator:       validator,
		mailer:          mailer,
		userRepo:        userRepo,
		bookingRepo:     bookingRepo,
		showRegistry:    showRegistry,
		paymentProvider: paymentProvider,
		reservations:    reservations,
		notifier:        notifier,
		scheduler:       scheduler,
	}
}

func NewApplication(cfg Config, logger *slog.Logger) (*Application, error) {
	stripe.Key = cfg.Stripe.SecretKey

	err := repository.Migrate(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	userRepo := repository.NewPostgresUserRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)
	showRegistry := repository.NewPostgresShowRegistry(db)

	smtpMailer := mailer.NewSMTPMailer(
		cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)

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

	paymentNotifier := notifier.New(bookingRepo, userRepo, showRegistry, smtpMailer, locks, logger)

	stripeProvider := payment.NewStripePaymentProvider(cfg.Stripe.FailureUrl, cfg.Stripe.SuccessUrl)

	app := NewApp(
		cfg,
		logger,
		db,
		redisClient,
		appvalidator.NewValidator(),
		smtpMailer,
		userRepo,
		bookingRepo,
		showRegistry,
		stripeProvider,
		reservations,
		paymentNotifier,
		scheduler,
	)

	return app, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func NewRedisClient(cfg Config) (redis.UniversalClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	err = redisotel.InstrumentTracing(rdb)
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func (app *Application) Close() {
	if app.db != nil {
		app.db.Close()
	}
	if app.redis != nil {
		app.redis.Close()
	}
}

func (app *Application) Serve() error {
	telemetryShutdown, err := app.InitTelemetry()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
	defer cancelScheduler()

	go app.scheduler.Start(schedulerCtx)

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
			return
		}

		app.scheduler.Stop()
		telemetryShutdown(ctx)

		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err = srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
