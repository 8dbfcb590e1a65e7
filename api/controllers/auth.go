package controllers

import (
	"net/http"

	"github.com/gustavosantosASA/Florestal-App-PPR/api/responses"
	"github.com/gustavosantosASA/Florestal-App-PPR/api/validators"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/auth"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
)

// TokenHeader mirrors the issued access token so clients can read it without parsing the body.
const TokenHeader = "X-Cronograma-Token"

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(TokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}
