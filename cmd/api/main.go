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
	"go.uber.org/multierr"

	"github.com/furnistore/furnistore-backend/api/routes"
	"github.com/furnistore/furnistore-backend/internal/catalog"
	"github.com/furnistore/furnistore-backend/internal/inventory"
	"github.com/furnistore/furnistore-backend/internal/orders"
	"github.com/furnistore/furnistore-backend/internal/reports"
	"github.com/furnistore/furnistore-backend/internal/reviews"
	"github.com/furnistore/furnistore-backend/internal/suppliers"
	"github.com/furnistore/furnistore-backend/pkg/config"
	"github.com/furnistore/furnistore-backend/pkg/db"
	"github.com/furnistore/furnistore-backend/pkg/logger"
	"github.com/furnistore/furnistore-backend/pkg/metrics"
	"github.com/furnistore/furnistore-backend/pkg/migrate"
	"github.com/furnistore/furnistore-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured, report cache disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	coreMetrics := metrics.NewCoreMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	inventoryRepo := inventory.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	reviewsRepo := reviews.NewRepository(dbClient.DB())
	reportsRepo := reports.NewRepository(dbClient.DB())
	suppliersRepo := suppliers.NewRepository(dbClient.DB())

	inventoryService, err := inventory.NewService(inventoryRepo, catalogRepo, dbClient, coreMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build inventory service", err)
		os.Exit(1)
	}

	var debiter orders.StockDebiter
	if cfg.FeatureFlags.AutoDebitStock {
		debiter = inventoryService
	}
	ordersService, err := orders.NewService(ordersRepo, dbClient, debiter, cfg.FeatureFlags.AutoDebitStock, coreMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build orders service", err)
		os.Exit(1)
	}

	reviewsService, err := reviews.NewService(reviewsRepo, catalogRepo, dbClient, coreMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build reviews service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(reportsRepo, redisClient, cfg.Reports.CacheTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build reports service", err)
		os.Exit(1)
	}

	suppliersService, err := suppliers.NewService(suppliersRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build suppliers service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		Registry:  registry,
		Inventory: inventoryService,
		Orders:    ordersService,
		Reviews:   reviewsService,
		Reports:   reportsService,
		Suppliers: suppliersService,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		ctx := logg.WithField(context.Background(), "addr", server.Addr)
		logg.Info(ctx, "api listening")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(context.Background(), "server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var shutdownErrs error
	if err := server.Shutdown(ctx); err != nil {
		shutdownErrs = multierr.Append(shutdownErrs, err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			shutdownErrs = multierr.Append(shutdownErrs, err)
		}
	}
	if shutdownErrs != nil {
		logg.Error(context.Background(), "shutdown completed with errors", shutdownErrs)
		os.Exit(1)
	}
	logg.Info(context.Background(), "shutdown complete")
}
