package controllers

import (
	"net/http"

	"github.com/gustavosantosASA/Florestal-App-PPR/api/responses"
	"github.com/gustavosantosASA/Florestal-App-PPR/api/validators"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/auth"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
)

// AuthRegister creates a regular user account.
func AuthRegister(svc auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AdminCreateUser lets an administrator create an account with any role.
func AdminCreateUser(svc auth.AdminRegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var body auth.AdminCreateUserRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
