package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/playabars/playabars-backend/api/responses"
	"github.com/playabars/playabars-backend/pkg/config"
	pkgerrors "github.com/playabars/playabars-backend/pkg/errors"
	"github.com/playabars/playabars-backend/pkg/logger"
)

const readyProbeTimeout = 2 * time.Second

// Pinger is anything that can report liveness of a dependency.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PlayaBars-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes the backing stores; any failing probe flips the
// endpoint to a 503 so load balancers stop routing here.
func HealthReady(cfg *config.Config, logg *logger.Logger, probes map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PlayaBars-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		for name, probe := range probes {
			if probe == nil {
				continue
			}
			if err := probe.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
