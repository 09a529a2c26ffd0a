package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/aether-storefront/api/responses"
	"github.com/angelmondragon/aether-storefront/api/validators"
	"github.com/angelmondragon/aether-storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

type addCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1,max=50"`
}

type setCartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=50"`
}

type cartResponse struct {
	Items    []cart.Item     `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func writeCart(w http.ResponseWriter, r *http.Request, svc cart.Service, logg *logger.Logger, status int) {
	ctx := r.Context()
	items, err := svc.ItemsWithDetails(ctx)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	subtotal, err := svc.Subtotal(ctx)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	responses.WriteSuccessStatus(w, status, cartResponse{Items: items, Count: count, Subtotal: subtotal})
}

func cartLineID(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return id, nil
}

func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		writeCart(w, r, svc, logg, http.StatusOK)
	}
}

// CartAddItem merges a product into the cart; quantity defaults to 1.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var req addCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}

		if _, err := svc.Add(ctx, strings.TrimSpace(req.ProductID), req.Quantity); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeCart(w, r, svc, logg, http.StatusCreated)
	}
}

func CartSetQuantity(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		id, err := cartLineID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req setCartQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if _, err := svc.SetQuantity(ctx, id, req.Quantity); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeCart(w, r, svc, logg, http.StatusOK)
	}
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		id, err := cartLineID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if _, err := svc.Remove(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeCart(w, r, svc, logg, http.StatusOK)
	}
}

func CartIncrement(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		id, err := cartLineID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if _, err := svc.Increment(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeCart(w, r, svc, logg, http.StatusOK)
	}
}

// CartDecrement removes the line when its quantity would drop below one.
func CartDecrement(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		id, err := cartLineID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if _, err := svc.Decrement(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeCart(w, r, svc, logg, http.StatusOK)
	}
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		if err := svc.Clear(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeCart(w, r, svc, logg, http.StatusOK)
	}
}
