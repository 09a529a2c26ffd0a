package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/aether-storefront/api/responses"
	"github.com/angelmondragon/aether-storefront/internal/wishlist"
	"github.com/angelmondragon/aether-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

type toggleSavedResponse struct {
	Kind      enums.SavedKind `json:"kind"`
	ProductID string          `json:"product_id"`
	Saved     bool            `json:"saved"`
}

func savedKindParam(r *http.Request) (enums.SavedKind, error) {
	kind, err := enums.ParseSavedKind(strings.ToLower(strings.TrimSpace(chi.URLParam(r, "kind"))))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown saved list").WithDetails(map[string]any{"field": "kind"})
	}
	return kind, nil
}

// SavedGet resolves both lists against the active catalog.
func SavedGet(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "saved service unavailable"))
			return
		}
		saved, err := svc.Resolve(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, saved)
	}
}

func SavedToggle(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "saved service unavailable"))
			return
		}
		kind, err := savedKindParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		saved, err := svc.Toggle(ctx, kind, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toggleSavedResponse{Kind: kind, ProductID: id, Saved: saved})
	}
}

func SavedRemove(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "saved service unavailable"))
			return
		}
		kind, err := savedKindParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		removed, err := svc.Remove(ctx, kind, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"removed": removed})
	}
}

func SavedClear(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "saved service unavailable"))
			return
		}
		kind, err := savedKindParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Clear(ctx, kind); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}
