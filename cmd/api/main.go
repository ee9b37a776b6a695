package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfbites/foodruns-backend/api/routes"
	"github.com/wolfbites/foodruns-backend/internal/announce"
	"github.com/wolfbites/foodruns-backend/internal/auth"
	"github.com/wolfbites/foodruns-backend/internal/points"
	"github.com/wolfbites/foodruns-backend/internal/runs"
	"github.com/wolfbites/foodruns-backend/internal/users"
	"github.com/wolfbites/foodruns-backend/pkg/auth/session"
	"github.com/wolfbites/foodruns-backend/pkg/config"
	"github.com/wolfbites/foodruns-backend/pkg/db"
	"github.com/wolfbites/foodruns-backend/pkg/logger"
	"github.com/wolfbites/foodruns-backend/pkg/metrics"
	"github.com/wolfbites/foodruns-backend/pkg/migrate"
	"github.com/wolfbites/foodruns-backend/pkg/openai"
	"github.com/wolfbites/foodruns-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		AuthConfig:     cfg.Auth,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		SessionManager: sessionManager,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
		AuthConfig:     cfg.Auth,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	var announcerClient *openai.Client
	if cfg.OpenAI.APIKey != "" {
		announcerClient, err = openai.NewClient(cfg.OpenAI.APIKey, openai.WithModel(cfg.OpenAI.Model))
		if err != nil {
			logg.Error(context.Background(), "failed to create openai client", err)
			os.Exit(1)
		}
	}

	runsService, err := runs.NewService(runs.ServiceParams{
		DB:        dbClient,
		Config:    cfg.Runs,
		Announcer: announce.New(announcerClient, logg),
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create runs service", err)
		os.Exit(1)
	}

	pointsService, err := points.NewService(dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create points service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			SessionManager:  sessionManager,
			HTTPMetrics:     httpMetrics,
			AuthService:     authService,
			RegisterService: registerService,
			UserDirectory:   users.NewRepository(dbClient.DB()),
			RunsService:     runsService,
			PointsService:   pointsService,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
