package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gustavosantosASA/Florestal-App-PPR/api/controllers"
	"github.com/gustavosantosASA/Florestal-App-PPR/api/middleware"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/auth"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/schedule"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/auth/session"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/config"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/enums"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(ctx context.Context, oldAccessID, login, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// redisStore is the slice of the redis client the router touches directly.
type redisStore interface {
	Ping(ctx context.Context) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient redisStore,
	sheetsClient controllers.Pinger,
	metrics prometheus.Gatherer,
	sessionManager sessionManager,
	authService auth.Service,
	registerService auth.RegisterService,
	adminRegisterService auth.AdminRegisterService,
	scheduleService schedule.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginKeyLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterKeyLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"redis":  redisClient,
			"sheets": sheetsClient,
		}))
	})

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(registerService, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, scheduleService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, scheduleService, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

		r.Route("/schedule", func(r chi.Router) {
			r.Get("/rows", controllers.ScheduleRows(scheduleService, logg))
			r.Post("/rows", controllers.ScheduleAddRow(scheduleService, logg))
			r.Get("/rows/{"+controllers.RowRefParam+"}", controllers.ScheduleGetRow(scheduleService, logg))
			r.Patch("/rows/{"+controllers.RowRefParam+"}", controllers.ScheduleEditRow(scheduleService, logg))
			r.Delete("/rows/{"+controllers.RowRefParam+"}", controllers.ScheduleDeleteRow(scheduleService, logg))
			r.Get("/options", controllers.ScheduleOptions(scheduleService, logg))
			r.Get("/filters", controllers.ScheduleGetFilters(scheduleService, logg))
			r.Post("/filters", controllers.ScheduleChangeFilter(scheduleService, logg))
			r.Delete("/filters", controllers.ScheduleResetFilters(scheduleService, logg))
			r.Get("/export", controllers.ScheduleExport(scheduleService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
			r.Post("/users", controllers.AdminCreateUser(adminRegisterService, logg))
		})
	})

	return r
}
