package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/draftdesk/draftdesk-backend/api/routes"
	"github.com/draftdesk/draftdesk-backend/internal/drafts"
	"github.com/draftdesk/draftdesk-backend/internal/failures"
	"github.com/draftdesk/draftdesk-backend/internal/schedule"
	"github.com/draftdesk/draftdesk-backend/internal/sessions"
	"github.com/draftdesk/draftdesk-backend/pkg/config"
	"github.com/draftdesk/draftdesk-backend/pkg/db"
	"github.com/draftdesk/draftdesk-backend/pkg/logger"
	"github.com/draftdesk/draftdesk-backend/pkg/migrate"
	"github.com/draftdesk/draftdesk-backend/pkg/redis"
	"github.com/draftdesk/draftdesk-backend/pkg/telegram"
)

const shutdownTimeout = 15 * time.Second

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

	cfg.Service.Kind = "api"

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

	jobService := schedule.NewService(jobRepo, cfg.Scheduler.MaxAttempts)

	router := routes.NewRouter(routes.RouterParams{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Engine:   engine,
		Jobs:     jobService,
		Failures: ledger,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown error", err)
		}
	}()

	logg.Info(ctx, "starting api server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
