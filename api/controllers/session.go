package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gustavosantosASA/Florestal-App-PPR/api/middleware"
	"github.com/gustavosantosASA/Florestal-App-PPR/api/responses"
	"github.com/gustavosantosASA/Florestal-App-PPR/api/validators"
	pkgAuth "github.com/gustavosantosASA/Florestal-App-PPR/pkg/auth"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/auth/session"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/config"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
)

type sessionTokenRotator interface {
	Rotate(ctx context.Context, oldAccessID, login, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type selectionResetter interface {
	ResetSelection(ctx context.Context, sessionID string) error
}

type selectionMover interface {
	MoveSelection(ctx context.Context, fromSessionID, toSessionID string) error
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// presentedClaims reads the bearer token even when it has expired; logout and
// refresh are exactly the calls made with a stale access token.
func presentedClaims(r *http.Request, cfg config.JWTConfig) (*pkgAuth.AccessTokenClaims, error) {
	token := middleware.BearerToken(r)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	return claims, nil
}

// AuthLogout revokes the refresh mapping tied to the presented access token and
// drops the filter selection stored for that session.
func AuthLogout(manager sessionTokenRotator, selections selectionResetter, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		claims, err := presentedClaims(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := manager.Revoke(r.Context(), claims.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}

		if selections != nil {
			if err := selections.ResetSelection(r.Context(), claims.ID); err != nil && logg != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "filter session not cleared on logout")
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthRefresh rotates the refresh token and issues a new access token carrying
// the same identity. The filter selection follows the session to the new token.
func AuthRefresh(manager sessionTokenRotator, selections selectionMover, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		var body refreshRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claims, err := presentedClaims(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		newAccessID, newRefreshToken, err := manager.Rotate(r.Context(), claims.ID, claims.Login, body.RefreshToken)
		if err != nil {
			if errors.Is(err, session.ErrInvalidRefreshToken) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session"))
			return
		}

		if selections != nil {
			if err := selections.MoveSelection(r.Context(), claims.ID, newAccessID); err != nil && logg != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "filter session not carried over on refresh")
			}
		}

		payload := pkgAuth.AccessTokenPayload{
			Login: claims.Login,
			Email: claims.Email,
			Role:  claims.Role,
			JTI:   newAccessID,
		}

		accessToken, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt"))
			return
		}

		w.Header().Set(TokenHeader, accessToken)
		responses.WriteSuccess(w, refreshResponse{
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
		})
	}
}
