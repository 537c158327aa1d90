// Command opshub runs the OpsHub API server.
//
// Two HTTP listeners are started: the API itself, and a separate port for
// health probes and the Prometheus scrape endpoint. The audit retention
// sweep runs on a cron schedule inside the process.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"

	"github.com/opshub-io/opshub/pkg/api"
	"github.com/opshub-io/opshub/pkg/audit"
	"github.com/opshub-io/opshub/pkg/auth"
	"github.com/opshub-io/opshub/pkg/config"
	"github.com/opshub-io/opshub/pkg/httputil"
	"github.com/opshub-io/opshub/pkg/observability"
	"github.com/opshub-io/opshub/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.InfoLevel, nil).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, nil)
	logger.WithFields(map[string]interface{}{
		"port":        cfg.Server.Port,
		"health_port": cfg.Server.HealthPort,
		"db_driver":   cfg.Database.Driver,
	}).Info("starting opshub")

	ctx := context.Background()
	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}

	if err := storage.RunMigrations(ctx, db, cfg.Database.Driver); err != nil {
		logger.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
		metrics.CollectDBStats(db)
	}

	hasher := auth.NewPasswordHasher(cfg.Auth.HashIterations)
	tokens := auth.NewTokenService([]byte(cfg.Auth.SigningSecret), cfg.Auth.TokenTTL)
	authService := auth.NewService(hasher, tokens, auth.NewSQLUserStore(db))
	recorder := audit.NewRecorder(db, logger, metrics)

	server := api.NewServer(db, authService, recorder, logger, metrics)
	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      httputil.CORSMiddleware(cfg.Server.CORSOrigins)(server.Router()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	health := observability.NewHealthChecker(db)
	healthRouter := mux.NewRouter()
	healthRouter.HandleFunc("/healthz", health.Liveness).Methods("GET")
	healthRouter.HandleFunc("/readyz", health.Readiness).Methods("GET")
	if metrics != nil {
		healthRouter.Handle("/metrics", metrics.Handler()).Methods("GET")
	}
	healthServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:     healthRouter,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	scheduler := cron.New()
	sweeper := audit.NewSweeper(db, logger, metrics, cfg.Audit.RetentionDays)
	if cfg.Audit.RetentionDays > 0 {
		if _, err := sweeper.Schedule(scheduler, cfg.Audit.SweepSchedule); err != nil {
			logger.WithError(err).Error("invalid audit sweep schedule")
			os.Exit(1)
		}
		scheduler.Start()
		logger.WithField("schedule", cfg.Audit.SweepSchedule).Info("audit retention sweep scheduled")
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, healthServer)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		stopCtx := scheduler.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
		return nil
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return db.Close()
	})

	go func() {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("health server failed")
			os.Exit(1)
		}
	}()

	go func() {
		logger.WithField("addr", apiServer.Addr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("api server failed")
			os.Exit(1)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("shutdown did not complete cleanly")
		os.Exit(1)
	}
	logger.Info("opshub stopped")
}
