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
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/doumai/doumai-backend/api/routes"
	"github.com/doumai/doumai-backend/internal/catalog"
	"github.com/doumai/doumai-backend/internal/channels"
	"github.com/doumai/doumai-backend/internal/dashboard"
	"github.com/doumai/doumai-backend/internal/inventory"
	"github.com/doumai/doumai-backend/internal/returns"
	"github.com/doumai/doumai-backend/internal/subscriptions"
	"github.com/doumai/doumai-backend/internal/tenants"
	"github.com/doumai/doumai-backend/pkg/config"
	"github.com/doumai/doumai-backend/pkg/db"
	"github.com/doumai/doumai-backend/pkg/logger"
	"github.com/doumai/doumai-backend/pkg/metrics"
	"github.com/doumai/doumai-backend/pkg/migrate"
	"github.com/doumai/doumai-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	params, err := buildServices(cfg, logg, dbClient, redisClient, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(*params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, registry *prometheus.Registry) (*routes.Params, error) {
	conn := dbClient.DB()

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptions.NewRepository(conn),
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		return nil, err
	}

	inventoryService, err := inventory.NewService(inventory.NewRepository(conn), dbClient, logg, inventory.Options{
		BatchLimit: cfg.Ledger.BatchMaxSKUs,
		Metrics:    metrics.NewLedgerMetrics(registry),
	})
	if err != nil {
		return nil, err
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:      catalog.NewRepository(conn),
		TxRunner:  dbClient,
		Inventory: inventoryService,
		Quota:     subscriptionService,
		Logger:    logg,
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

	returnService, err := returns.NewService(returns.ServiceParams{
		Repo:      returns.NewRepository(conn),
		TxRunner:  dbClient,
		Inventory: inventoryService,
		Features:  subscriptionService,
		Logger:    logg,
	})
	if err != nil {
		return nil, err
	}

	dashboardService, err := dashboard.NewService(dashboard.NewRepository(conn), nil)
	if err != nil {
		return nil, err
	}

	tenantService, err := tenants.NewService(tenants.ServiceParams{
		Repo:              tenants.NewRepository(conn),
		TransactionRunner: dbClient,
		Subscriptions:     subscriptionService,
		Catalog:           catalogService,
		Logger:            logg,
		DisableSamples:    !cfg.FeatureFlags.OnboardingSeeds,
	})
	if err != nil {
		return nil, err
	}

	return &routes.Params{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		Registry:      registry,
		Inventory:     inventoryService,
		Catalog:       catalogService,
		Channels:      channelService,
		Returns:       returnService,
		Dashboard:     dashboardService,
		Subscriptions: subscriptionService,
		Tenants:       tenantService,
	}, nil
}
