// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ammerola/preloved-be/internal/adapters/db"
	redis_a "github.com/ammerola/preloved-be/internal/adapters/redis_adapter"
	"github.com/ammerola/preloved-be/internal/core/services"
	"github.com/ammerola/preloved-be/internal/pkg/config"
	"github.com/ammerola/preloved-be/internal/pkg/logger"
	"github.com/ammerola/preloved-be/internal/workers"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("worker stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(logger.SetupLogger("info", "json").Logger)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(logger.Options{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		SampleRate:  cfg.App.LogSample,
		Service:     cfg.App.Name + "-worker",
		Version:     Version,
		Environment: cfg.App.Environment,
	}).Logger
	slog.SetDefault(log)

	database, err := db.NewDatabase(ctx, db.ConfigFrom(cfg.Database).WithPoolSize(10, 2), log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()

	rdb, err := redis_a.Connect(ctx, cfg.Redis, redis_a.WithPoolSize(4))
	if err != nil {
		return err
	}
	defer rdb.Close()

	catalogCfg, err := services.ConfigFrom(cfg.Catalog)
	if err != nil {
		return err
	}

	jobs := db.NewJobRepository(database, log)
	catalog := services.NewCatalogService(
		db.NewItemRepository(database, log),
		redis_a.NewCache(rdb, cfg.Redis.TTL, log),
		catalogCfg, log)

	server := workers.NewServer(cfg.Asynq, log)

	imports := workers.NewExcelProcessor(catalog, jobs, cfg.FileProcessing.TempDir, log)
	server.Handle(workers.TypeCatalogImport, imports.ProcessExcel)
	server.Handle(workers.TypeCatalogRefresh, workers.NewRefreshProcessor(catalog, log).RefreshCatalog)

	housekeeper := workers.NewHousekeeper(jobs, workers.CleanupConfig{
		TempDir:      cfg.FileProcessing.TempDir,
		TempMaxAge:   cfg.FileProcessing.TempMaxAge,
		JobRetention: cfg.FileProcessing.JobRetention,
		// local image storage lives beside the uploads
		Keep: []string{"images"},
	}, log)
	server.Handle(workers.TypeCleanupTempFiles, housekeeper.SweepUploads)
	server.Handle(workers.TypeCleanupOldJobs, housekeeper.PruneJobs)

	if err := server.Schedule(workers.DefaultSchedules(catalogCfg.SnapshotTTL, cfg.FileProcessing.CleanupInterval)...); err != nil {
		return err
	}

	log.Info("worker started",
		slog.String("redis_addr", cfg.Asynq.RedisAddr),
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	return server.Run(ctx)
}
