package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gustavosantosASA/Florestal-App-PPR/api/routes"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/audit"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/auth"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/filters"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/schedule"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/users"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/auth/session"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/config"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/metrics"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/pubsub"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/redis"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sheetsClient, err := sheets.NewClient(ctx, cfg.Sheets, metrics.NewSheetMetrics(registry), logg)
	if err != nil {
		return err
	}

	var publisher audit.Publisher = audit.NoopPublisher{}
	if cfg.PubSub.Enabled() {
		psClient, psErr := pubsub.NewClient(ctx, cfg.PubSub, cfg.Sheets, logg)
		if psErr != nil {
			return psErr
		}
		defer func() {
			err = multierr.Append(err, psClient.Close())
		}()
		publisher = audit.NewPubSubPublisher(psClient.AuditPublisher(), logg)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	userRepo := users.NewRepository(sheetsClient, cfg.Sheets.UsersTab)
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{UserRepo: userRepo})
	if err != nil {
		return err
	}
	adminRegisterService, err := auth.NewAdminRegisterService(auth.AdminRegisterServiceParams{UserRepo: userRepo})
	if err != nil {
		return err
	}

	scheduleService, err := schedule.NewService(schedule.ServiceParams{
		Sheets:       sheetsClient,
		Cache:        redisClient,
		CacheMetrics: metrics.NewCacheMetrics(registry),
		Engine:       filters.New(cfg.Schedule.FilterColumns, cfg.Schedule.OwnerColumn),
		Publisher:    publisher,
		Logger:       logg,
		Tab:          cfg.Sheets.DataTab,
		IDColumn:     cfg.Sheets.IDColumn,
		CacheTTL:     cfg.Schedule.CacheTTL,
		SessionTTL:   cfg.Schedule.SessionTTL,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"spreadsheet": sheetsClient.Title(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			sheetsClient,
			registry,
			sessionManager,
			authService,
			registerService,
			adminRegisterService,
			scheduleService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logg.Info(logCtx, "api server shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(groupCtx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
