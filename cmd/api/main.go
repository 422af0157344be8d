package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/quickshow/booking-api/internal/app"
	"github.com/quickshow/booking-api/internal/vcs"
)

var (
	version = vcs.Version()
)

func main() {
	var cfg app.Config

	flag.IntVar(&cfg.Port, "port", 3000, "server port")
	flag.StringVar(&cfg.Env, "env", "dev", "Environment (dev|staging|prod)")

	flag.StringVar(&cfg.DB.DSN, "db-dsn", os.Getenv("BOOKING_DB_DSN"), "PostgreSQL DSN")
	flag.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max connection idle time")

	flag.StringVar(&cfg.Redis.URL, "redis-url", "localhost:6379", "Redis URL")
	flag.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", 25, "Redis max idle connections")
	flag.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", 15*time.Minute, "Redis max connection idle time")

	flag.StringVar(&cfg.SMTP.Host, "smtp-host", "localhost", "SMTP host")
	flag.IntVar(&cfg.SMTP.Port, "smtp-port", 1025, "SMTP port")
	flag.StringVar(&cfg.SMTP.Username, "smtp-username", "", "SMTP username")
	flag.StringVar(&cfg.SMTP.Password, "smtp-password", "", "SMTP password")
	flag.StringVar(&cfg.SMTP.Sender, "smtp-sender", "QuickShow <no-reply@quickshow.example>", "SMTP sender")

	flag.StringVar(&cfg.Stripe.SecretKey, "stripe-secret-key", os.Getenv("STRIPE_SECRET_KEY"), "Stripe secret key")
	flag.StringVar(&cfg.Stripe.WebhookSecret, "stripe-webhook-secret", os.Getenv("STRIPE_WEBHOOK_SECRET"), "Stripe webhook signing secret")
	flag.StringVar(&cfg.Stripe.SuccessUrl, "stripe-success-url", "http://localhost:3000/payments/success", "Checkout success redirect URL")
	flag.StringVar(&cfg.Stripe.FailureUrl, "stripe-failure-url", "http://localhost:3000/payments/failure", "Checkout cancel redirect URL")

	flag.DurationVar(&cfg.GracePeriod, "grace-period", 10*time.Minute, "How long an unpaid booking holds its seats")
	flag.DurationVar(&cfg.SweepInterval, "sweep-interval", time.Minute, "Interval between expired booking sweeps")
	flag.DurationVar(&cfg.RetryBackoff, "retry-backoff", 30*time.Second, "Delay before retrying a failed expiry")

	flag.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", "", "OpenTelemetry collector URL (empty disables telemetry)")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer application.Close()

	err = application.Serve()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
