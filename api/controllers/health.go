package controllers

import (
	"context"
	"net/http"

	"github.com/agrimandi/agrimandi-backend/api/responses"
	"github.com/agrimandi/agrimandi-backend/pkg/config"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AgriMandi-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and redis before reporting readiness.
func HealthReady(cfg *config.Config, db, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AgriMandi-Env", cfg.App.Env)

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
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
