package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/orchidcraft/orchid-backend/internal/artworks"
	"github.com/orchidcraft/orchid-backend/internal/cart"
	"github.com/orchidcraft/orchid-backend/internal/cron"
	"github.com/orchidcraft/orchid-backend/internal/orders"
	"github.com/orchidcraft/orchid-backend/internal/users"
	"github.com/orchidcraft/orchid-backend/pkg/config"
	"github.com/orchidcraft/orchid-backend/pkg/db"
	"github.com/orchidcraft/orchid-backend/pkg/gateway"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
	"github.com/orchidcraft/orchid-backend/pkg/metrics"
	"github.com/orchidcraft/orchid-backend/pkg/migrate"
	"github.com/orchidcraft/orchid-backend/pkg/outbox"
	"github.com/orchidcraft/orchid-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(context.Background(), "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "cron worker shutting down gracefully")
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	paymentGateway, err := gateway.New(cfg.Gateway, cfg.App.IsProd(), logg)
	if err != nil {
		return err
	}

	gdb := dbClient.DB()
	outboxRepo := outbox.NewRepository(gdb)
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(gdb),
		Artworks:  artworks.NewRepository(gdb),
		Carts:     cart.NewRepository(gdb),
		Addresses: users.NewRepository(gdb),
		Gateway:   paymentGateway,
		Tx:        dbClient,
		Outbox:    outbox.NewService(outboxRepo, logg),
		Locker:    redisClient,
		Logger:    logg,
		Config:    cfg.Orders,
	})
	if err != nil {
		return err
	}

	expiry, err := cron.NewOrderExpiryJob(cron.OrderExpiryJobParams{
		Logger:     logg,
		Orders:     orderService,
		StaleAfter: cfg.Orders.StaleAfter,
	})
	if err != nil {
		return err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outboxRepo,
		Retention:  cfg.Outbox.Retention,
	})
	if err != nil {
		return err
	}
	registry, err := cron.NewRegistry(expiry, retention)
	if err != nil {
		return err
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker", cfg.App.Env), cfg.Cron.Interval)
	if err != nil {
		return err
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}
