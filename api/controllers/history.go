package controllers

import (
	"net/http"

	"github.com/angelmondragon/aether-storefront/api/responses"
	"github.com/angelmondragon/aether-storefront/internal/history"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

// HistoryGet resolves recently viewed ids, most recent first, skipping products no longer listed.
func HistoryGet(svc history.Service, store CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "history service unavailable"))
			return
		}
		opts, err := parseDisplayOptions(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		products, err := svc.Resolve(ctx, store.Snapshot())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductViews(products, opts))
	}
}

func HistoryClear(svc history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "history service unavailable"))
			return
		}
		if err := svc.Clear(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}
