package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/aether-storefront/api/responses"
	"github.com/angelmondragon/aether-storefront/internal/coupons"
	"github.com/angelmondragon/aether-storefront/internal/loyalty"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

type loyaltyResponse struct {
	Balance int64           `json:"balance"`
	History []loyalty.Entry `json:"history"`
}

type rewardView struct {
	loyalty.Reward
	Affordable bool `json:"affordable"`
}

type redeemResponse struct {
	Coupon  coupons.Definition `json:"coupon"`
	Balance int64              `json:"balance"`
}

type couponsResponse struct {
	Held []coupons.Instance `json:"held"`
	Used []string           `json:"used"`
}

func LoyaltyGet(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}
		balance, err := svc.Balance(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		history, err := svc.History(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, loyaltyResponse{Balance: balance, History: history})
	}
}

// LoyaltyRewards lists the trading shop with affordability against the current balance.
func LoyaltyRewards(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}
		balance, err := svc.Balance(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		rewards := loyalty.Rewards()
		out := make([]rewardView, 0, len(rewards))
		for _, reward := range rewards {
			out = append(out, rewardView{Reward: reward, Affordable: balance >= reward.Cost})
		}
		responses.WriteSuccess(w, out)
	}
}

func LoyaltyRedeem(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}
		coupon, err := svc.Redeem(ctx, strings.TrimSpace(chi.URLParam(r, "id")))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		balance, err := svc.Balance(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, redeemResponse{Coupon: coupon, Balance: balance})
	}
}

// CouponsGet lists the held coupon instances and the used-code ledger.
func CouponsGet(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}
		held, err := svc.Inventory(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		used, err := svc.UsedCodes(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, couponsResponse{Held: held, Used: used})
	}
}
