package controllers

import (
	"context"
	"net/http"

	"github.com/wolfbites/foodruns-backend/api/responses"
	"github.com/wolfbites/foodruns-backend/pkg/config"
	pkgerrors "github.com/wolfbites/foodruns-backend/pkg/errors"
	"github.com/wolfbites/foodruns-backend/pkg/logger"
)

// Pinger is the readiness surface a backing store exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FoodRuns-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the backing stores before reporting readiness.
func HealthReady(cfg *config.Config, database, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FoodRuns-Env", cfg.App.Env)

		if database != nil {
			if err := database.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
