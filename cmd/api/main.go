package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesaops/mesa-backend/api/routes"
	"github.com/mesaops/mesa-backend/internal/importer"
	"github.com/mesaops/mesa-backend/internal/ledger"
	"github.com/mesaops/mesa-backend/internal/matching"
	"github.com/mesaops/mesa-backend/internal/normalizer"
	"github.com/mesaops/mesa-backend/internal/receipts"
	"github.com/mesaops/mesa-backend/internal/suppliers"
	"github.com/mesaops/mesa-backend/pkg/config"
	"github.com/mesaops/mesa-backend/pkg/db"
	"github.com/mesaops/mesa-backend/pkg/logger"
	"github.com/mesaops/mesa-backend/pkg/metrics"
	"github.com/mesaops/mesa-backend/pkg/migrate"

	product "github.com/mesaops/mesa-backend/internal/products"
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

	recMetrics := metrics.NewReconciliationMetrics(prometheus.DefaultRegisterer)

	normalizerRepo := normalizer.NewRepository(dbClient.DB())
	productRepo := product.NewRepository(dbClient.DB())
	receiptRepo := receipts.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	supplierRepo := suppliers.NewRepository(dbClient.DB())

	normalizerService, err := normalizer.NewService(normalizerRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create normalizer service", err)
		os.Exit(1)
	}

	matchService, err := matching.NewService(normalizerService, productRepo, receiptRepo, cfg.Matching, recMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create matching service", err)
		os.Exit(1)
	}

	receiptService, err := receipts.NewService(receiptRepo, matchService, productRepo, normalizerService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create receipt service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	supplierService, err := suppliers.NewService(supplierRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create supplier service", err)
		os.Exit(1)
	}

	importService, err := importer.NewService(receiptRepo, productRepo, ledgerService, supplierService, recMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create import service", err)
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
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, receiptService, importService, productRepo, productRepo, ledgerService, supplierService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
