package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/aether-storefront/api/responses"
	"github.com/angelmondragon/aether-storefront/api/validators"
	"github.com/angelmondragon/aether-storefront/internal/checkout"
	"github.com/angelmondragon/aether-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

// CheckoutQuote prices the cart for ?method= and ?coupon= without side effects.
func CheckoutQuote(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		method := enums.ShippingMethodStandard
		if raw := strings.TrimSpace(r.URL.Query().Get("method")); raw != "" {
			parsed, err := enums.ParseShippingMethod(strings.ToLower(raw))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported shipping method").WithDetails(map[string]any{"field": "method"}))
				return
			}
			method = parsed
		}

		quote, err := svc.Quote(ctx, method, r.URL.Query().Get("coupon"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func CheckoutShippingMethods() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, checkout.ShippingMethods())
	}
}

// CheckoutPlaceOrder answers 201 with the order on success. Form, cart and coupon
// rejections are 422 with the result body; ledgers are untouched in that case.
func CheckoutPlaceOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var form checkout.OrderForm
		if err := validators.DecodeJSON(r, &form); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.PlaceOrder(ctx, form)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !result.Success {
			responses.WriteSuccessStatus(w, http.StatusUnprocessableEntity, result)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
