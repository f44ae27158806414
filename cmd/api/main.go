package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/planboardhq/planboard-backend/api/routes"
	"github.com/planboardhq/planboard-backend/internal/audit"
	"github.com/planboardhq/planboard-backend/internal/drivers"
	"github.com/planboardhq/planboard-backend/internal/fleet"
	"github.com/planboardhq/planboard-backend/internal/jobs"
	"github.com/planboardhq/planboard-backend/internal/locations"
	"github.com/planboardhq/planboard-backend/internal/planner"
	"github.com/planboardhq/planboard-backend/internal/realtime"
	"github.com/planboardhq/planboard-backend/pkg/config"
	"github.com/planboardhq/planboard-backend/pkg/db"
	"github.com/planboardhq/planboard-backend/pkg/logger"
	"github.com/planboardhq/planboard-backend/pkg/metrics"
	"github.com/planboardhq/planboard-backend/pkg/migrate"
	"github.com/planboardhq/planboard-backend/pkg/redis"
)

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
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plannerMetrics := metrics.NewPlannerMetrics(prometheus.DefaultRegisterer)

	hub := realtime.NewHub(cfg.Realtime, logg)
	go hub.Run(runCtx)

	sub, err := redisClient.Subscribe(runCtx, cfg.Realtime.Channel)
	if err != nil {
		logg.Error(runCtx, "failed to subscribe to change channel", err)
		os.Exit(1)
	}
	defer sub.Close()
	go hub.Listen(runCtx, sub)

	announcer := realtime.NewPublisher(redisClient, cfg.Realtime.Channel, logg)
	recorder := audit.NewRecorder(logg)

	plannerRepo := planner.NewRepository(dbClient.DB())
	gate, err := planner.NewGate(dbClient, plannerRepo, plannerMetrics)
	if err != nil {
		logg.Error(runCtx, "failed to create planner gate", err)
		os.Exit(1)
	}

	plannerSvc, err := planner.NewService(gate, plannerRepo, recorder, announcer, plannerMetrics)
	if err != nil {
		logg.Error(runCtx, "failed to create planner service", err)
		os.Exit(1)
	}
	driverSvc, err := drivers.NewService(drivers.NewRepository(dbClient.DB()), gate, recorder, announcer, plannerMetrics)
	if err != nil {
		logg.Error(runCtx, "failed to create drivers service", err)
		os.Exit(1)
	}
	fleetSvc, err := fleet.NewService(fleet.NewRepository(dbClient.DB()), gate, recorder, announcer, plannerMetrics)
	if err != nil {
		logg.Error(runCtx, "failed to create fleet service", err)
		os.Exit(1)
	}
	locationSvc, err := locations.NewService(locations.NewRepository(dbClient.DB()), gate, recorder, announcer, plannerMetrics)
	if err != nil {
		logg.Error(runCtx, "failed to create locations service", err)
		os.Exit(1)
	}
	jobSvc, err := jobs.NewService(jobs.NewRepository(dbClient.DB()), gate, recorder, announcer, plannerMetrics)
	if err != nil {
		logg.Error(runCtx, "failed to create jobs service", err)
		os.Exit(1)
	}
	auditSvc, err := audit.NewService(audit.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(runCtx, "failed to create audit service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Hub:       hub,
			Drivers:   driverSvc,
			Fleet:     fleetSvc,
			Locations: locationSvc,
			Jobs:      jobSvc,
			Planner:   plannerSvc,
			Audit:     auditSvc,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
