package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/doumai/doumai-backend/internal/channels"
	"github.com/doumai/doumai-backend/internal/cron"
	"github.com/doumai/doumai-backend/internal/subscriptions"
	"github.com/doumai/doumai-backend/pkg/config"
	"github.com/doumai/doumai-backend/pkg/db"
	"github.com/doumai/doumai-backend/pkg/logger"
	"github.com/doumai/doumai-backend/pkg/metrics"
	"github.com/doumai/doumai-backend/pkg/migrate"
	"github.com/doumai/doumai-backend/pkg/redis"
)

const serviceName = "sync-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	service, err := buildService(cfg, logg, dbClient, redisClient, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Sync.Interval.String(),
	})

	metricsServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics listener stopped", err)
		}
	}()

	logg.Info(ctx, "starting sync worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	closeErr := multierr.Combine(
		metricsServer.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if closeErr != nil {
		logg.Error(ctx, "error releasing worker resources", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "sync worker shutting down gracefully")
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, registry *prometheus.Registry) (*cron.Service, error) {
	conn := dbClient.DB()

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptions.NewRepository(conn),
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		return nil, err
	}

	locker, err := redisClient.Locker()
	if err != nil {
		return nil, err
	}
	channelService, err := channels.NewService(channels.ServiceParams{
		Repo:       channels.NewRepository(conn),
		TxRunner:   dbClient,
		Quota:      subscriptionService,
		Locker:     locker,
		Keys:       redisClient,
		Logger:     logg,
		LockTTL:    cfg.Sync.LockTTL,
		MaxRetries: cfg.Sync.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	completion, err := cron.NewSyncCompletionJob(channelService, cfg.Sync.CompletionDelay, logg)
	if err != nil {
		return nil, err
	}
	scheduled, err := cron.NewScheduledSyncJob(channelService, logg)
	if err != nil {
		return nil, err
	}
	expiry, err := cron.NewSubscriptionExpiryJob(subscriptionService, logg)
	if err != nil {
		return nil, err
	}
	jobs, err := cron.NewRegistry(completion, scheduled, expiry)
	if err != nil {
		return nil, err
	}

	lock, err := cron.NewCycleLock(locker, redisClient.LockKey(serviceName, cfg.App.Env), cfg.Sync.LockTTL)
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(registry),
		Interval: cfg.Sync.Interval,
	})
}
