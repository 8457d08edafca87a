package controllers

import (
	"context"
	"net/http"

	"github.com/dariamatveeva/beautycare-backend/api/responses"
	"github.com/dariamatveeva/beautycare-backend/internal/catalog"
	"github.com/dariamatveeva/beautycare-backend/pkg/config"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
)

// RedisPinger is satisfied by the redis client; nil means redis is not
// configured and readiness skips it.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BeautyCare-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports degraded dependencies without failing the check for
// optional ones. An empty catalog is the only hard failure: the engine
// cannot recommend or sell from nothing.
func HealthReady(cfg *config.Config, logg *logger.Logger, catalogStore *catalog.Store, redisClient RedisPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-BeautyCare-Env", cfg.App.Env)

		status := map[string]any{"status": "ready"}

		snap := catalogStore.Get(ctx)
		status["catalog_products"] = snap.Len()
		if snap.Len() == 0 {
			status["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}

		if redisClient != nil {
			if err := redisClient.Ping(ctx); err != nil {
				status["redis"] = "unavailable"
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "redis ping failed")
				}
			} else {
				status["redis"] = "ok"
			}
		}

		responses.WriteSuccess(w, status)
	}
}
