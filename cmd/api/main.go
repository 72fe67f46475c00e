package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/orchidcraft/orchid-backend/api/controllers"
	"github.com/orchidcraft/orchid-backend/api/routes"
	"github.com/orchidcraft/orchid-backend/internal/aiproxy"
	"github.com/orchidcraft/orchid-backend/internal/artworks"
	"github.com/orchidcraft/orchid-backend/internal/auth"
	"github.com/orchidcraft/orchid-backend/internal/cart"
	"github.com/orchidcraft/orchid-backend/internal/likes"
	"github.com/orchidcraft/orchid-backend/internal/media"
	"github.com/orchidcraft/orchid-backend/internal/orders"
	"github.com/orchidcraft/orchid-backend/internal/otp"
	"github.com/orchidcraft/orchid-backend/internal/users"
	"github.com/orchidcraft/orchid-backend/pkg/auth/session"
	"github.com/orchidcraft/orchid-backend/pkg/config"
	"github.com/orchidcraft/orchid-backend/pkg/db"
	"github.com/orchidcraft/orchid-backend/pkg/gateway"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
	"github.com/orchidcraft/orchid-backend/pkg/mailer"
	"github.com/orchidcraft/orchid-backend/pkg/metrics"
	"github.com/orchidcraft/orchid-backend/pkg/migrate"
	"github.com/orchidcraft/orchid-backend/pkg/outbox"
	"github.com/orchidcraft/orchid-backend/pkg/redis"
	"github.com/orchidcraft/orchid-backend/pkg/storage/cloudinary"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	paymentGateway, err := gateway.New(cfg.Gateway, cfg.App.IsProd(), logg)
	if err != nil {
		return err
	}

	mail, err := mailer.New(cfg.Sendgrid, logg)
	if err != nil {
		return err
	}

	gdb := dbClient.DB()
	userRepo := users.NewRepository(gdb)
	artworkRepo := artworks.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)

	likeService, err := likes.NewService(likes.ServiceParams{
		Likes:    likes.NewRepository(gdb),
		Artworks: artworkRepo,
		Tx:       dbClient,
	})
	if err != nil {
		return err
	}

	otpService, err := otp.NewService(redisClient, mail, cfg.OTP, logg)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		OTP:            otpService,
		Likes:          likeService,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}

	userService, err := users.NewService(userRepo, likeService, dbClient)
	if err != nil {
		return err
	}

	artworkService, err := artworks.NewService(artworkRepo, dbClient)
	if err != nil {
		return err
	}

	cartService, err := cart.NewService(cartRepo, artworkRepo, dbClient)
	if err != nil {
		return err
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(gdb),
		Artworks:  artworkRepo,
		Carts:     cartRepo,
		Addresses: userRepo,
		Gateway:   paymentGateway,
		Tx:        dbClient,
		Outbox:    outbox.NewService(outbox.NewRepository(gdb), logg),
		Locker:    redisClient,
		Logger:    logg,
		Config:    cfg.Orders,
	})
	if err != nil {
		return err
	}

	var mediaService media.Service
	if cdn, cdnErr := cloudinary.NewClient(cfg.Cloudinary, logg); cdnErr != nil {
		logg.Warn(ctx, "cloudinary not configured, media uploads disabled")
	} else if mediaService, err = media.NewService(cdn, artworkService, cfg.Cloudinary.MaxUploadMB, logg); err != nil {
		return err
	}

	proxy, err := aiproxy.NewProxy(cfg.AI, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Sessions:    sessionManager,
		RateLimiter: redisClient,
		Readiness:   map[string]controllers.Pinger{"db": dbClient, "redis": redisClient},
		Registry:    registry,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Auth:        authService,
		Users:       userService,
		Artworks:    artworkService,
		Media:       mediaService,
		Cart:        cartService,
		Orders:      orderService,
		Likes:       likeService,
		AI:          proxy,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Must outlast the AI upstream timeout.
		WriteTimeout: cfg.AI.Timeout + 30*time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
