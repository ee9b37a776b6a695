package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfbites/foodruns-backend/api/controllers"
	"github.com/wolfbites/foodruns-backend/api/middleware"
	"github.com/wolfbites/foodruns-backend/internal/auth"
	"github.com/wolfbites/foodruns-backend/internal/points"
	"github.com/wolfbites/foodruns-backend/internal/runs"
	"github.com/wolfbites/foodruns-backend/pkg/auth/session"
	"github.com/wolfbites/foodruns-backend/pkg/config"
	"github.com/wolfbites/foodruns-backend/pkg/logger"
	"github.com/wolfbites/foodruns-backend/pkg/metrics"
	"github.com/wolfbites/foodruns-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              controllers.Pinger
	Redis           *redis.Client
	SessionManager  sessionManager
	HTTPMetrics     *metrics.HTTPMetrics
	AuthService     auth.Service
	RegisterService auth.RegisterService
	UserDirectory   controllers.UserDirectory
	RunsService     runs.Service
	PointsService   points.Service
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(params.HTTPMetrics),
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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.DB, params.Redis, logg))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, params.Redis, logg)).
			Post("/register", controllers.AuthRegister(params.RegisterService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, params.Redis, logg)).
			Post("/login", controllers.AuthLogin(params.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(params.SessionManager, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(params.SessionManager, cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, params.SessionManager, logg))
			r.Get("/me", controllers.AuthMe(params.UserDirectory, logg))
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, params.SessionManager, logg))

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", controllers.RunCreate(params.RunsService, logg))
			r.Get("/", controllers.RunList(params.RunsService, logg))
			r.Get("/available", controllers.RunListAvailable(params.RunsService, logg))
			r.Get("/mine", controllers.RunListMine(params.RunsService, false, logg))
			r.Get("/mine/history", controllers.RunListMine(params.RunsService, true, logg))
			r.Get("/joined", controllers.RunListJoined(params.RunsService, false, logg))
			r.Get("/joined/history", controllers.RunListJoined(params.RunsService, true, logg))
			r.Get("/id/{runID}", controllers.RunDetail(params.RunsService, logg))

			r.Route("/{runID}", func(r chi.Router) {
				r.Post("/orders", controllers.RunJoin(params.RunsService, logg))
				r.Post("/orders/{orderID}/verify-pin", controllers.RunVerifyPin(params.RunsService, logg))
				r.Delete("/orders/me", controllers.RunCancelMyOrder(params.RunsService, logg))
				r.Delete("/orders/{orderID}", controllers.RunRemoveOrder(params.RunsService, logg))
				r.Put("/complete", controllers.RunComplete(params.RunsService, logg))
				r.Put("/cancel", controllers.RunCancel(params.RunsService, logg))
			})
		})

		r.Route("/points", func(r chi.Router) {
			r.Get("/", controllers.PointsBalance(params.PointsService, logg))
			r.Post("/redeem", controllers.PointsRedeem(params.PointsService, logg))
		})
	})

	return r
}
