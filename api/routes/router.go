package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/worldleaderio/worldleader-backend/api/controllers"
	"github.com/worldleaderio/worldleader-backend/api/middleware"
	"github.com/worldleaderio/worldleader-backend/internal/auth"
	"github.com/worldleaderio/worldleader-backend/internal/leaderboard"
	"github.com/worldleaderio/worldleader-backend/internal/notifications"
	"github.com/worldleaderio/worldleader-backend/internal/purchase"
	"github.com/worldleaderio/worldleader-backend/internal/users"
	"github.com/worldleaderio/worldleader-backend/pkg/auth/session"
	"github.com/worldleaderio/worldleader-backend/pkg/config"
	"github.com/worldleaderio/worldleader-backend/pkg/db"
	"github.com/worldleaderio/worldleader-backend/pkg/logger"
	"github.com/worldleaderio/worldleader-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps carries everything the router mounts.
type Deps struct {
	DB             db.Pinger
	Redis          *redis.Client
	SessionManager sessionManager
	Auth           auth.Service
	Register       auth.RegisterService
	PasswordReset  auth.PasswordResetService
	Purchase       purchase.Service
	Leaderboard    leaderboard.Service
	Users          users.Service
	Notifications  notifications.Service
	Metrics        prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	forgotPolicy := middleware.NewAuthRateLimitPolicy(
		"forgot",
		cfg.AuthRateLimit.ForgotWindow,
		cfg.AuthRateLimit.ForgotIPLimit,
		cfg.AuthRateLimit.ForgotEmailLimit,
	)
	resetPolicy := middleware.NewAuthRateLimitPolicy(
		"reset",
		cfg.AuthRateLimit.ResetWindow,
		cfg.AuthRateLimit.ResetIPLimit,
		0,
	)

	passthrough := func(next http.Handler) http.Handler { return next }
	throttled := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if deps.Redis == nil {
			return passthrough
		}
		return middleware.AuthRateLimit(policy, deps.Redis, logg)
	}
	purchaseThrottle := passthrough
	if deps.Redis != nil {
		purchaseThrottle = middleware.PurchaseRateLimit(
			deps.Redis,
			cfg.Purchase.RateLimitCount,
			cfg.Purchase.RateLimitWindow,
			logg,
		)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))

		checks := map[string]controllers.ReadyCheck{}
		if deps.DB != nil {
			checks["db"] = deps.DB.Ping
		}
		if deps.Redis != nil {
			checks["redis"] = deps.Redis.Ping
		}
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(throttled(loginPolicy)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(throttled(registerPolicy)).Post("/register", controllers.AuthRegister(deps.Register, logg))
		r.With(throttled(forgotPolicy)).Post("/forgot-password", controllers.ForgotPassword(deps.PasswordReset, logg))
		r.Get("/reset-password/verify", controllers.VerifyResetToken(deps.PasswordReset, logg))
		r.With(throttled(resetPolicy)).Post("/reset-password", controllers.ResetPassword(deps.PasswordReset, logg))
		r.Post("/logout", controllers.AuthLogout(deps.SessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.SessionManager, cfg.JWT, logg))
	})

	r.Get("/api/v1/leaderboard", controllers.Leaderboard(deps.Leaderboard, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/users/me", controllers.Profile(deps.Users, logg))

		r.With(purchaseThrottle).Post("/purchase", controllers.Purchase(deps.Purchase, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{id}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})
	})

	return r
}
