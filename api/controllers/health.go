package controllers

import (
	"net/http"

	"github.com/dmitrykozlov/storefront-backend/api/responses"
	"github.com/dmitrykozlov/storefront-backend/pkg/config"
	"github.com/dmitrykozlov/storefront-backend/pkg/db"
	pkgerrors "github.com/dmitrykozlov/storefront-backend/pkg/errors"
	"github.com/dmitrykozlov/storefront-backend/pkg/logger"
	"github.com/dmitrykozlov/storefront-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when every backing service answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["database"] = "unreachable"
				healthy = false
				logg.Warn(r.Context(), "health.db_unreachable")
			} else {
				checks["database"] = "ok"
			}
		}

		if redisClient != nil {
			if err := redisClient.Ping(r.Context()); err != nil {
				checks["redis"] = "unreachable"
				healthy = false
				logg.Warn(r.Context(), "health.redis_unreachable")
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "backing services unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
