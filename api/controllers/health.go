package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/aether-storefront/api/responses"
	"github.com/angelmondragon/aether-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

const envHeader = "X-Aether-Env"

// Pinger is implemented by the storage and event sink clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CatalogReadiness reports whether a catalog generation has been applied.
type CatalogReadiness interface {
	Ready() bool
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the named dependencies and requires a loaded catalog.
// Nil pingers are skipped so the memory backend reports ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, catalog CatalogReadiness, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set(envHeader, cfg.App.Env)

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
					WithDetails(map[string]any{"dependency": name}))
				return
			}
		}
		if catalog != nil && !catalog.Ready() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "catalog not loaded").
				WithDetails(map[string]any{"dependency": "catalog"}))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
