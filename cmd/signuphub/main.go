package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/signuphub/signuphub/internal/accounts"
	"github.com/signuphub/signuphub/internal/app"
	"github.com/signuphub/signuphub/internal/auth"
	"github.com/signuphub/signuphub/internal/observability"
	"github.com/signuphub/signuphub/internal/platform/db"
	"github.com/signuphub/signuphub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	logger.Info("connecting to database")
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MinConns: cfg.PGMinConns, MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.InitSchema(ctx, pool); err != nil {
		logger.Error("init schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("connected to database")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	var limiter accounts.AttemptLimiter
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, activation throttle disabled", slog.Any("error", err))
	} else {
		limiter = accounts.NewCodeAttemptLimiter(redisClient, cfg.ActivationMaxAttempts, cfg.ActivationAttemptWindow)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	notifier := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	metrics.Registerer().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gate := auth.NewGate(auth.NewCredentialStore(pool))
	authmw := auth.RequireBasicAuth(gate, logger)

	accountsRepo := accounts.NewRepository(pool, cfg.PGOpTimeout)
	accountsService := accounts.NewService(accountsRepo, notifier, limiter, logger, accounts.ServiceConfig{
		CodeValidityPeriod: cfg.CodeValidityPeriod,
		PasswordMaxLength:  cfg.PasswordMaxLength,
	})
	accountsHandler := accounts.NewHandler(logger, accountsService, authmw, metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AccountsHandler: accountsHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
