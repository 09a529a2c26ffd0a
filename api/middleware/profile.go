package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/aether-storefront/api/responses"
	"github.com/angelmondragon/aether-storefront/internal/profile"
	"github.com/angelmondragon/aether-storefront/internal/storefront"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

// CatalogReconciler brings the bound profile up to the active catalog generation.
type CatalogReconciler interface {
	EnsureCurrent(ctx context.Context) (storefront.Report, error)
}

// Profile binds the X-Profile-Id profile to the request and serializes the whole
// request under that profile's lock. Stale ledgers are reconciled before the handler runs.
// Only profiles that completed a write join the registry swept on catalog sync.
func Profile(locks *profile.Locks, registry *profile.Registry, reconciler CatalogReconciler, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(profile.Header))
			if err := profile.ValidateID(id); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := profile.WithID(r.Context(), id)
			if logg != nil {
				ctx = logg.WithProfileID(ctx, id)
			}

			serve := func() error {
				if reconciler != nil {
					if _, err := reconciler.EnsureCurrent(ctx); err != nil {
						responses.WriteError(ctx, logg, w, err)
						return nil
					}
				}
				rec := &statusRecorder{ResponseWriter: w}
				next.ServeHTTP(rec, r.WithContext(ctx))
				if registry != nil && isWrite(r.Method) && rec.status < http.StatusBadRequest {
					registry.Touch(id)
				}
				return nil
			}
			if locks == nil {
				_ = serve()
				return
			}
			_ = locks.Do(id, serve)
		})
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}
