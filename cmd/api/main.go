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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/angelmondragon/autostore-backend/api/controllers"
	"github.com/angelmondragon/autostore-backend/api/routes"
	"github.com/angelmondragon/autostore-backend/internal/cart"
	"github.com/angelmondragon/autostore-backend/internal/catalog"
	"github.com/angelmondragon/autostore-backend/internal/checkout"
	"github.com/angelmondragon/autostore-backend/internal/financing"
	"github.com/angelmondragon/autostore-backend/internal/leads"
	"github.com/angelmondragon/autostore-backend/internal/localstore"
	"github.com/angelmondragon/autostore-backend/internal/preferences"
	"github.com/angelmondragon/autostore-backend/pkg/config"
	"github.com/angelmondragon/autostore-backend/pkg/db"
	"github.com/angelmondragon/autostore-backend/pkg/env"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
	"github.com/angelmondragon/autostore-backend/pkg/metrics"
	"github.com/angelmondragon/autostore-backend/pkg/migrate"
	"github.com/angelmondragon/autostore-backend/pkg/redis"
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

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	readiness := map[string]controllers.Pinger{}

	var gormDB *gorm.DB
	if cfg.NeedsDatabase() {
		dbClient, err := db.New(runCtx, cfg.DB, logg)
		if err != nil {
			logg.Error(runCtx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()

		if err := migrate.MaybeRunDev(runCtx, cfg, logg, dbClient); err != nil {
			logg.Error(runCtx, "failed to run dev migrations", err)
			os.Exit(1)
		}
		gormDB = dbClient.DB()
		readiness["database"] = dbClient
	}

	// Interfaces stay nil unless redis is configured.
	var (
		storeRedis       *redis.Client
		idempotencyStore redis.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(runCtx, cfg.Redis, logg)
		if err != nil {
			logg.Error(runCtx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		storeRedis = redisClient
		idempotencyStore = redisClient
		readiness["redis"] = redisClient
	}

	var backend localstore.Store
	if storeRedis != nil {
		backend, err = localstore.Open(cfg.Storage.Driver, storeRedis, gormDB)
	} else {
		backend, err = localstore.Open(cfg.Storage.Driver, nil, gormDB)
	}
	if err != nil {
		logg.Error(runCtx, "failed to open local store", err)
		os.Exit(1)
	}
	readiness["store"] = backend
	keyspace := localstore.NewKeyspace(cfg.Storage.KeyPrefix)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	catalogClient, err := catalog.NewFromConfig(cfg.Catalog, metrics.NewCatalogMetrics(registry))
	if err != nil {
		logg.Error(runCtx, "failed to create catalog client", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Store:             cart.NewStore(backend, keyspace),
		Catalog:           catalogClient,
		Logger:            logg,
		Metrics:           metrics.NewCartMetrics(registry),
		GuestUserID:       cfg.Storefront.GuestUserID,
		EnrichConcurrency: cfg.Storefront.EnrichConcurrency,
	})
	if err != nil {
		logg.Error(runCtx, "failed to create cart service", err)
		os.Exit(1)
	}

	preferencesService, err := preferences.NewService(preferences.ServiceParams{
		Backend:           backend,
		Keyspace:          keyspace,
		Catalog:           catalogClient,
		Logger:            logg,
		CompareLimit:      cfg.Storefront.CompareLimit,
		EnrichConcurrency: cfg.Storefront.EnrichConcurrency,
	})
	if err != nil {
		logg.Error(runCtx, "failed to create preferences service", err)
		os.Exit(1)
	}

	financingDefaults := financing.DefaultsFromConfig(cfg.Storefront)

	var leadsService leads.Service
	if cfg.FeatureFlags.LeadsEnabled {
		leadsService, err = leads.NewService(leads.ServiceParams{
			Repo:      leads.NewRepository(gormDB),
			Catalog:   catalogClient,
			Financing: financingDefaults,
			Logger:    logg,
		})
		if err != nil {
			logg.Error(runCtx, "failed to create leads service", err)
			os.Exit(1)
		}
	}

	var checkoutService checkout.Service
	if leadsService != nil {
		checkoutService, err = checkout.NewService(checkout.ServiceParams{
			Cart:      cartService,
			Leads:     leadsService,
			Financing: financingDefaults,
			Logger:    logg,
		})
		if err != nil {
			logg.Error(runCtx, "failed to create checkout service", err)
			os.Exit(1)
		}
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(runCtx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": cfg.Storage.Driver,
		"catalog": cfg.Catalog.BaseURL,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			readiness,
			idempotencyStore,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
			catalogClient,
			cartService,
			checkoutService,
			preferencesService,
			leadsService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
