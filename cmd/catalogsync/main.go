// Package main wires together the catalog import service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/admission"
	"github.com/brandgate/catalog-sync/internal/api"
	"github.com/brandgate/catalog-sync/internal/catalog"
	"github.com/brandgate/catalog-sync/internal/clock/system"
	"github.com/brandgate/catalog-sync/internal/config"
	"github.com/brandgate/catalog-sync/internal/importer"
	"github.com/brandgate/catalog-sync/internal/logging"
	"github.com/brandgate/catalog-sync/internal/orchestrator"
	pubsubpublisher "github.com/brandgate/catalog-sync/internal/publisher/pubsub"
	"github.com/brandgate/catalog-sync/internal/remote"
	"github.com/brandgate/catalog-sync/internal/store/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	refs := flag.String("refs", "", "Comma-separated references to import once, then exit")
	fast := flag.Bool("fast", false, "Use the cache-accelerated batch path for -refs")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, postgres.Config{
		DSN:             cfg.DB.DSN,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: time.Duration(cfg.DB.MaxConnLifetime) * time.Minute,
	})
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer pool.Close()

	clock := system.New()
	gate := admission.New(cfg.Admission.MaxConcurrentReads)

	var retry catalog.RetryPolicy
	if cfg.Supplier.MaxRetries > 0 {
		retry = remote.NewExponentialRetryPolicy(cfg.Supplier.MaxRetries, 250*time.Millisecond, 5*time.Second)
	}
	supplier := remote.New(remote.Config{
		BaseURL:  cfg.Supplier.BaseURL,
		APIKey:   cfg.Supplier.APIKey,
		ClientID: cfg.Supplier.ClientID,
		Timeout:  cfg.SupplierTimeout(),
		MaxRPS:   cfg.Supplier.MaxRPS,
	}, retry, clock, logger.Named("remote"))

	products := postgres.NewProductRepo(pool)
	imps := orchestrator.Importers{
		Product:    importer.NewProductImporter(supplier, products, gate, clock, logger.Named("product")),
		Brand:      importer.NewBrandImporter(supplier, postgres.NewBrandRepo(pool), gate, clock, logger.Named("brand")),
		Category:   importer.NewCategoryImporter(supplier, postgres.NewCategoryRepo(pool), gate, clock, logger.Named("category")),
		Skus:       importer.NewSkuImporter(supplier, postgres.NewSkuRepo(pool), gate, clock, logger.Named("sku")),
		Images:     importer.NewImageImporter(supplier, postgres.NewImageRepo(pool), gate, clock, logger.Named("image")),
		Stock:      importer.NewStockImporter(supplier, postgres.NewStockRepo(pool), gate, clock, logger.Named("stock")),
		Attributes: importer.NewAttributesImporter(supplier, postgres.NewAttributeRepo(pool), gate, clock, logger.Named("attributes")),
	}

	var publisher catalog.Publisher
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		client, err := gcppubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Warn("pubsub init failed, completion events disabled", zap.Error(err))
		} else {
			defer client.Close()
			publisher = pubsubpublisher.New(client.Topic(cfg.PubSub.TopicName))
		}
	}

	batch := orchestrator.New(imps, clock, publisher, cfg.PubSub.TopicName, logger.Named("batch"))
	fastBatch := orchestrator.NewFast(imps, products, gate, clock, publisher, cfg.PubSub.TopicName, orchestrator.FastConfig{
		GroupSize:      cfg.Importer.GroupSize,
		ReferencePause: cfg.ReferencePause(),
		GroupPause:     cfg.GroupPause(),
	}, logger.Named("fastbatch"))

	if *refs != "" {
		runOnce(ctx, batch, fastBatch, *refs, *fast, cfg, logger)
		return
	}

	apiServer := api.NewServer(batch, fastBatch, gate, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// runOnce drives a single batch from the command line, for cron jobs and
// manual backfills.
func runOnce(
	ctx context.Context,
	batch *orchestrator.BatchOrchestrator,
	fastBatch *orchestrator.FastBatchOrchestrator,
	refs string,
	fast bool,
	cfg config.Config,
	logger *zap.Logger,
) {
	var references []string
	for _, ref := range strings.Split(refs, ",") {
		if ref = strings.TrimSpace(ref); ref != "" {
			references = append(references, ref)
		}
	}
	opts := catalog.DefaultOptions()
	opts.WarehouseFilter = cfg.Importer.WarehouseFilter

	var results []catalog.ImportResult
	if fast {
		results = fastBatch.ImportMany(ctx, references, opts)
	} else {
		results = batch.ImportMany(ctx, references, opts)
	}

	failed := 0
	for _, res := range results {
		if !res.Success {
			failed++
			logger.Warn("reference failed",
				zap.String("reference", res.Reference),
				zap.String("message", res.Message),
				zap.Int("errors", len(res.Errors)),
			)
		}
	}
	logger.Info("batch finished",
		zap.Int("total", len(results)),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		os.Exit(1)
	}
}
