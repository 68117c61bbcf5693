package controllers

import (
	"context"
	"net/http"

	"github.com/worldleaderio/worldleader-backend/api/responses"
	"github.com/worldleaderio/worldleader-backend/pkg/config"
	pkgerrors "github.com/worldleaderio/worldleader-backend/pkg/errors"
	"github.com/worldleaderio/worldleader-backend/pkg/logger"
)

// ReadyCheck probes one dependency for the readiness endpoint.
type ReadyCheck func(ctx context.Context) error

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WorldLeader-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every wired dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks map[string]ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WorldLeader-Env", cfg.App.Env)

		statuses := map[string]string{}
		healthy := true
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(r.Context()); err != nil {
				statuses[name] = "unavailable"
				healthy = false
				continue
			}
			statuses[name] = "ok"
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(statuses)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": statuses})
	}
}
