// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ammerola/preloved-be/internal/adapters/db"
	"github.com/ammerola/preloved-be/internal/pkg/config"
	"github.com/ammerola/preloved-be/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("api stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(logger.SetupLogger("debug", "json").Logger)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(logger.Options{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		SampleRate:  cfg.App.LogSample,
		Service:     cfg.App.Name,
		Version:     Version,
		Environment: cfg.App.Environment,
	}).Logger
	slog.SetDefault(log)
	log.Info("starting catalog api", slog.String("build_time", BuildTime))

	if !cfg.IsProduction() {
		// production schemas are migrated out of band by the seeder
		if err := db.RunMigrationsWithRetry(ctx, db.ConfigFrom(cfg.Database).URL(), log, 3); err != nil {
			log.Error("migrations failed", slog.String("error", err.Error()))
		}
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if n, err := a.catalog.Refresh(ctx); err != nil {
		log.Warn("initial catalog load failed", slog.String("error", err.Error()))
	} else {
		log.Info("catalog snapshot loaded", slog.Int("items", n))
	}

	return serve(ctx, cfg, a.server(ctx, cfg), log)
}

// serve runs srv until ctx is cancelled, then drains it within the
// configured grace period.
func serve(ctx context.Context, cfg *config.Config, srv *http.Server, log *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening",
			slog.String("address", srv.Addr),
			slog.Bool("tls", cfg.Server.TLSEnabled))

		var err error
		if cfg.Server.TLSEnabled {
			err = srv.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.GracefulTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Join(fmt.Errorf("graceful shutdown: %w", err), srv.Close())
		}
		return nil
	})

	return g.Wait()
}

// closers releases resources in reverse order of acquisition.
type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i].Close())
	}
	return errors.Join(errs...)
}

type closeFunc func()

func (f closeFunc) Close() error { f(); return nil }
