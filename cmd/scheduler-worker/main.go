package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/draftdesk/draftdesk-backend/internal/drafts"
	"github.com/draftdesk/draftdesk-backend/internal/failures"
	"github.com/draftdesk/draftdesk-backend/internal/schedule"
	"github.com/draftdesk/draftdesk-backend/internal/sessions"
	"github.com/draftdesk/draftdesk-backend/pkg/config"
	"github.com/draftdesk/draftdesk-backend/pkg/db"
	"github.com/draftdesk/draftdesk-backend/pkg/logger"
	"github.com/draftdesk/draftdesk-backend/pkg/metrics"
	"github.com/draftdesk/draftdesk-backend/pkg/migrate"
	"github.com/draftdesk/draftdesk-backend/pkg/telegram"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "scheduler-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "scheduler-worker"

	logg = logger.New(logger.Options{
		ServiceName: "scheduler-worker",
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

	gateway, err := telegram.NewBotGateway(cfg.Telegram.BotToken)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap telegram gateway", err)
		os.Exit(1)
	}

	draftRepo := drafts.NewRepository(dbClient.DB())
	jobRepo := schedule.NewRepository(dbClient.DB())
	ledger := failures.NewLedger(failures.NewRepository(dbClient.DB()))
	sessionMgr := sessions.NewManager(sessions.NewRepository(dbClient.DB()))

	engine, err := drafts.NewEngine(drafts.EngineParams{
		DB:         dbClient,
		Drafts:     draftRepo,
		Jobs:       jobRepo,
		Ledger:     ledger,
		Sessions:   sessionMgr,
		Gateway:    gateway,
		Publishing: cfg.Publishing,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build lifecycle engine", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	schedulerMetrics := metrics.NewSchedulerMetrics(registry)

	service, err := NewService(ServiceParams{
		Config:  cfg,
		Logger:  logg,
		DB:      dbClient,
		Jobs:    jobRepo,
		Engine:  engine,
		Ledger:  ledger,
		Metrics: schedulerMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "scheduler-worker",
	})

	if cfg.Service.MetricsAddr != "" {
		go serveMetrics(ctx, logg, cfg.Service.MetricsAddr, registry)
	}

	logg.Info(ctx, "starting publication scheduler")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "publication scheduler stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "publication scheduler shutting down gracefully")
}

func serveMetrics(ctx context.Context, logg *logger.Logger, addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "metrics server stopped", err)
	}
}
