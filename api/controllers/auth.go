package controllers

import (
	"net/http"

	"github.com/agrimandi/agrimandi-backend/api/responses"
	"github.com/agrimandi/agrimandi-backend/api/validators"
	"github.com/agrimandi/agrimandi-backend/internal/auth"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

// Register creates an unverified account and emails a verification code.
func Register(svc auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var payload auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// VerifyEmail consumes the registration code and activates the account.
func VerifyEmail(svc auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var payload auth.VerifyEmailRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.VerifyEmail(r.Context(), payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "verified"})
	}
}

// ResendCode reissues the email verification challenge.
func ResendCode(svc auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var payload auth.ResendCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ResendCode(r.Context(), payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "sent"})
	}
}

// Login exchanges credentials for a role-scoped access token.
func Login(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
