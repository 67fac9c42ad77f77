// cmd/api/app.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"path/filepath"

	"github.com/hibiken/asynq"

	"github.com/ammerola/preloved-be/internal/adapters/auth"
	"github.com/ammerola/preloved-be/internal/adapters/db"
	redis_a "github.com/ammerola/preloved-be/internal/adapters/redis_adapter"
	"github.com/ammerola/preloved-be/internal/adapters/storage"
	"github.com/ammerola/preloved-be/internal/adapters/vision"
	"github.com/ammerola/preloved-be/internal/core/ports"
	"github.com/ammerola/preloved-be/internal/core/services"
	"github.com/ammerola/preloved-be/internal/handlers"
	"github.com/ammerola/preloved-be/internal/handlers/middleware"
	"github.com/ammerola/preloved-be/internal/pkg/config"
	"github.com/ammerola/preloved-be/internal/pkg/metrics"
	"github.com/ammerola/preloved-be/internal/workers"
)

const localImagesPath = "/images"

// app is the wired API process.
type app struct {
	closers
	log       *slog.Logger
	metrics   *metrics.Metrics
	authority ports.AdminAuthority
	catalog   *services.CatalogService
	routes    handlers.Routes
	// imageDir is set when images are kept on disk and served by the API
	imageDir string
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{log: log}
	if err := a.wire(ctx, cfg); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, cfg *config.Config) error {
	log := a.log

	database, err := db.NewDatabase(ctx, db.ConfigFrom(cfg.Database), log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.closers = append(a.closers, closeFunc(database.Close))

	rdb, err := redis_a.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, rdb)
	cache := redis_a.NewCache(rdb, cfg.Redis.TTL, log)

	queue := asynq.NewClient(workers.RedisOpt(cfg.Asynq))
	inspector := asynq.NewInspector(workers.RedisOpt(cfg.Asynq))
	a.closers = append(a.closers, queue, inspector)

	images, err := a.imageStore(ctx, cfg)
	if err != nil {
		return err
	}

	catalogCfg, err := services.ConfigFrom(cfg.Catalog)
	if err != nil {
		return err
	}

	if cfg.Server.EnableMetrics {
		a.metrics = metrics.New()
	}

	items := db.NewItemRepository(database, log)
	jobs := db.NewJobRepository(database, log)
	a.catalog = services.NewCatalogService(items, cache, catalogCfg, log, services.WithMetrics(a.metrics))
	a.authority = auth.NewTokenAuthority(cfg.Security.AdminTokens)

	estimator := vision.NewClient(vision.Config{
		Endpoint: cfg.Vision.Endpoint,
		APIKey:   cfg.Vision.APIKey,
		Timeout:  cfg.Vision.Timeout,
		RPS:      cfg.Vision.RPS,
		Burst:    cfg.Vision.Burst,
	}, log)

	const mb = 1 << 20
	a.routes = handlers.Routes{
		Catalog: handlers.NewCatalogHandler(a.catalog, log),
		Scan: handlers.NewScanHandler(images, estimator, cache, log,
			int64(cfg.FileProcessing.ImageMaxSizeMB)*mb, cfg.Vision.ResultTTL),
		Admin: handlers.NewAdminHandler(a.catalog, log),
		Import: handlers.NewImportHandler(jobs, queue, log,
			int64(cfg.FileProcessing.ExcelMaxSizeMB)*mb, cfg.FileProcessing.TempDir),
		Export: handlers.NewExportHandler(a.catalog, log),
	}
	if cfg.Server.EnableHealthCheck {
		a.routes.Health = handlers.NewHealthHandler(database, items, cache, inspector, cfg, log)
	}
	if a.metrics != nil {
		a.routes.Metrics = a.metrics.Handler()
	}

	return nil
}

// imageStore uses S3 unless no bucket is configured or a development setup
// has no S3 endpoint, in which case images live under the temp directory.
func (a *app) imageStore(ctx context.Context, cfg *config.Config) (ports.ImageStore, error) {
	if cfg.AWS.S3Bucket == "" || (cfg.AWS.S3Endpoint == "" && cfg.IsDevelopment()) {
		a.imageDir = filepath.Join(cfg.FileProcessing.TempDir, "images")
		a.log.Info("using local image storage", slog.String("path", a.imageDir))
		return storage.NewLocalStorage(a.imageDir, localImagesPath, a.log), nil
	}

	store, err := storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, a.log)
	if err != nil {
		return nil, fmt.Errorf("init s3 storage: %w", err)
	}
	return store, nil
}

func (a *app) server(ctx context.Context, cfg *config.Config) *http.Server {
	mux := http.NewServeMux()
	a.routes.Register(mux, middleware.RequireAdmin(a.authority, a.log))

	if a.imageDir != "" {
		mux.Handle("GET "+localImagesPath+"/",
			http.StripPrefix(localImagesPath+"/", http.FileServer(http.Dir(a.imageDir))))
	}
	if cfg.Server.EnablePprof && cfg.IsDevelopment() {
		mux.HandleFunc("GET /debug/pprof/", pprof.Index)
		mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	}

	// Metrics must wrap the mux directly to see the matched pattern
	var h http.Handler = mux
	if a.metrics != nil {
		h = middleware.Metrics(a.metrics)(h)
	}

	var chain []func(http.Handler) http.Handler
	if cfg.App.Environment != "test" {
		chain = append(chain, middleware.Recovery(a.log), middleware.RequestID, middleware.Logger(a.log))
	}
	if cfg.Security.SecureHeaders {
		chain = append(chain, middleware.SecureHeaders)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		chain = append(chain, middleware.CORS(cfg.Security.AllowedOrigins))
	}
	if cfg.Security.RateLimitRequests > 0 {
		chain = append(chain, middleware.RateLimit(ctx, cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}
	if cfg.Server.Compression {
		chain = append(chain, middleware.Compression(1024))
	}
	chain = append(chain, middleware.Timeout(cfg.Server.RequestTimeout))

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        middleware.Chain(h, chain...),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.log.Handler(), slog.LevelError),
	}
}
