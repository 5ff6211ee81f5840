package controllers

import (
	"context"
	"net/http"

	"github.com/opsdeskhq/opsdesk-backend/api/responses"
	"github.com/opsdeskhq/opsdesk-backend/pkg/config"
	pkgerrors "github.com/opsdeskhq/opsdesk-backend/pkg/errors"
	"github.com/opsdeskhq/opsdesk-backend/pkg/logger"
)

// Pinger reports backing-store reachability for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-OpsDesk-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, pingers ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-OpsDesk-Env", cfg.App.Env)
		for _, p := range pingers {
			if p == nil {
				continue
			}
			if err := p.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "readiness check"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
