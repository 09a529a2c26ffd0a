package controllers

import (
	"net/http"

	"github.com/angelmondragon/aether-storefront/api/responses"
	"github.com/angelmondragon/aether-storefront/api/validators"
	"github.com/angelmondragon/aether-storefront/internal/auth"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

const maxUsernameLength = 60

func AuthSignup(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req auth.SignupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		account, err := svc.Signup(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, account)
	}
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		account, err := svc.Login(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		if err := svc.Logout(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"logged_out": true})
	}
}

// AccountGet returns the session view; it never requires a session.
func AccountGet(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		account, err := svc.Account(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

// AccountUpdate patches username and/or avatar for the signed-in profile.
func AccountUpdate(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req auth.UpdateAccountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if req.Username == nil && req.Avatar == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update"))
			return
		}

		var (
			account auth.Account
			err     error
		)
		if req.Username != nil {
			if account, err = svc.UpdateUsername(ctx, validators.SanitizeString(*req.Username, maxUsernameLength)); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		if req.Avatar != nil {
			if account, err = svc.UpdateAvatar(ctx, *req.Avatar); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, account)
	}
}
