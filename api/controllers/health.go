package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gustavosantosASA/Florestal-App-PPR/api/responses"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/config"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
)

const (
	envHeader    = "X-Cronograma-Env"
	readyTimeout = 3 * time.Second
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency and fails with 503 listing the ones
// that did not answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		var failing []string
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				failing = append(failing, name)
				if logg != nil {
					logg.Warn(logg.WithFields(r.Context(), map[string]any{"dependency": name, "error": err.Error()}), "readiness check failed")
				}
			}
		}
		if len(failing) > 0 {
			sort.Strings(failing)
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
				WithDetails(map[string]any{"failing": failing})
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
