package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orchidcraft/orchid-backend/api/controllers"
	"github.com/orchidcraft/orchid-backend/api/middleware"
	"github.com/orchidcraft/orchid-backend/internal/aiproxy"
	"github.com/orchidcraft/orchid-backend/internal/artworks"
	"github.com/orchidcraft/orchid-backend/internal/auth"
	"github.com/orchidcraft/orchid-backend/internal/cart"
	"github.com/orchidcraft/orchid-backend/internal/likes"
	"github.com/orchidcraft/orchid-backend/internal/media"
	"github.com/orchidcraft/orchid-backend/internal/orders"
	"github.com/orchidcraft/orchid-backend/internal/users"
	"github.com/orchidcraft/orchid-backend/pkg/auth/session"
	"github.com/orchidcraft/orchid-backend/pkg/config"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
	"github.com/orchidcraft/orchid-backend/pkg/metrics"
)

type rateLimitStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

type aiForwarder interface {
	Forward(ctx context.Context, upstream aiproxy.Upstream, req aiproxy.Request) (*aiproxy.Response, error)
}

// Deps is everything the HTTP surface needs. Nil services produce 500s from
// their handlers rather than panics.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Sessions    session.AccessSessionChecker
	RateLimiter rateLimitStore
	Readiness   map[string]controllers.Pinger
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics

	Auth     auth.Service
	Users    users.Service
	Artworks artworks.Service
	Media    media.Service
	Cart     cart.Service
	Orders   orders.Service
	Likes    likes.Service
	AI       aiForwarder
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
	)

	rl := cfg.AuthRateLimit
	loginPolicy := middleware.NewAuthRateLimitPolicy("login", rl.LoginWindow, rl.LoginIPLimit, rl.LoginEmailLimit)
	signupPolicy := middleware.NewAuthRateLimitPolicy("signup", rl.SignupWindow, rl.SignupIPLimit, rl.SignupEmailLimit)
	otpPolicy := middleware.NewAuthRateLimitPolicy("otp", rl.OTPWindow, rl.OTPIPLimit, rl.OTPEmailLimit)

	requireAuth := middleware.Auth(cfg.JWT, d.Sessions, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.Readiness, logg))
	})
	if d.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signupPolicy, d.RateLimiter, logg)).Post("/signup", controllers.AuthSignup(d.Auth, cfg.JWT, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, d.RateLimiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, cfg.JWT, logg))
			r.With(middleware.AuthRateLimit(otpPolicy, d.RateLimiter, logg)).Post("/send-otp", controllers.AuthSendOTP(d.Auth, logg))
			r.With(middleware.AuthRateLimit(otpPolicy, d.RateLimiter, logg)).Post("/verify-otp", controllers.AuthVerifyOTP(d.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, cfg.JWT, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(d.Auth, cfg.JWT, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, d.Sessions, logg))
			r.Get("/artworks", controllers.ListArtworks(d.Artworks, logg))
			r.Get("/artworks/{id}", controllers.GetArtwork(d.Artworks, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/user", func(r chi.Router) {
				r.Get("/profile", controllers.UserProfile(d.Users, logg))
				r.Put("/profile", controllers.UpdateUserProfile(d.Users, logg))
				r.Get("/addresses", controllers.ListAddresses(d.Users, logg))
				r.Post("/addresses", controllers.CreateAddress(d.Users, logg))
				r.Put("/addresses/{id}", controllers.UpdateAddress(d.Users, logg))
				r.Delete("/addresses/{id}", controllers.DeleteAddress(d.Users, logg))
			})

			r.Get("/artworks/mine", controllers.ListMyArtworks(d.Artworks, logg))
			r.Post("/artworks", controllers.CreateArtwork(d.Artworks, logg))
			r.Put("/artworks/{id}", controllers.UpdateArtwork(d.Artworks, logg))
			r.Delete("/artworks/{id}", controllers.DeleteArtwork(d.Artworks, logg))
			r.Post("/artworks/{id}/media", controllers.UploadArtworkMedia(d.Media, maxUploadBytes(cfg), logg))
			r.Delete("/artworks/{id}/media/*", controllers.DeleteArtworkMedia(d.Media, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
				r.Post("/add", controllers.CartAdd(d.Cart, logg))
				r.Put("/items/{artworkId}", controllers.CartUpdateQty(d.Cart, logg))
				r.Delete("/items/{artworkId}", controllers.CartRemoveItem(d.Cart, logg))
			})

			r.Route("/order", func(r chi.Router) {
				r.Post("/create", controllers.CreateOrder(d.Orders, orders.SourceCart, logg))
				r.Post("/direct", controllers.CreateOrder(d.Orders, orders.SourceDirect, logg))
				r.Post("/verify", controllers.VerifyPayment(d.Orders, logg))
				r.Get("/my-orders", controllers.MyOrders(d.Orders, logg))
				r.Get("/my-sales", controllers.MySales(d.Orders, logg))
				r.Get("/my-sales/export", controllers.ExportMySales(d.Orders, logg))
				r.Get("/{id}", controllers.GetOrder(d.Orders, logg))
				r.Put("/{id}/status", controllers.UpdateOrderStatus(d.Orders, logg))
				r.Post("/{id}/cancel", controllers.CancelOrder(d.Orders, logg))
			})

			r.Route("/like", func(r chi.Router) {
				r.Get("/mine", controllers.ListMyLikes(d.Likes, logg))
				r.Post("/{artworkId}", controllers.ToggleLike(d.Likes, logg))
			})

			r.Post("/vision/*", controllers.AIProxy(d.AI, aiproxy.UpstreamVision))
			r.Post("/gift-ai/*", controllers.AIProxy(d.AI, aiproxy.UpstreamGift))
		})
	})

	return r
}

func maxUploadBytes(cfg *config.Config) int64 {
	mb := cfg.Cloudinary.MaxUploadMB
	if mb <= 0 {
		mb = 25
	}
	return int64(mb) << 20
}
