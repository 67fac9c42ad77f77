// internal/adapters/db/migrations.go
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrator applies the embedded catalog schema.
type Migrator struct {
	m      *migrate.Migrate
	logger *slog.Logger
}

// NewMigrator connects to databaseURL (postgres:// or postgresql://) with
// the pgx migrate driver.
func NewMigrator(databaseURL string, logger *slog.Logger) (*Migrator, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, driverURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect migrate driver: %w", err)
	}

	logger = logger.With(slog.String("component", "migrator"))
	m.Log = migrateLog{logger}
	m.LockTimeout = time.Minute

	return &Migrator{m: m, logger: logger}, nil
}

func driverURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(databaseURL, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// Up applies every pending migration. Cancelling ctx stops after the
// migration in flight.
func (m *Migrator) Up(ctx context.Context) error {
	err := m.run(ctx, m.m.Up)
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.InfoContext(ctx, "schema up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	if v, _, err := m.Version(); err == nil {
		m.logger.InfoContext(ctx, "schema migrated", slog.Uint64("version", uint64(v)))
	}
	return nil
}

// Down rolls back one migration. A dirty schema is refused.
func (m *Migrator) Down(ctx context.Context) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("schema is dirty at version %d; force a version first", v)
	}

	err = m.run(ctx, func() error { return m.m.Steps(-1) })
	switch {
	case errors.Is(err, migrate.ErrNoChange), errors.Is(err, migrate.ErrNilVersion), errors.Is(err, fs.ErrNotExist):
		m.logger.InfoContext(ctx, "nothing to roll back")
		return nil
	case err != nil:
		return fmt.Errorf("migrate down: %w", err)
	}

	m.logger.InfoContext(ctx, "rolled back migration", slog.Uint64("from_version", uint64(v)))
	return nil
}

// Version reports the applied version. An empty schema is version 0.
func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return v, dirty, nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (m *Migrator) run(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		m.m.GracefulStop <- true
		<-done
		return ctx.Err()
	}
}

// RunMigrationsWithRetry brings the schema up, retrying with exponential
// backoff while the database is still starting.
func RunMigrationsWithRetry(ctx context.Context, databaseURL string, logger *slog.Logger, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(attempts-1)), ctx)

	apply := func() error {
		migrator, err := NewMigrator(databaseURL, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := migrator.Close(); err != nil {
				logger.WarnContext(ctx, "failed to close migrator", slog.String("error", err.Error()))
			}
		}()
		return migrator.Up(ctx)
	}

	notify := func(err error, wait time.Duration) {
		logger.WarnContext(ctx, "migration attempt failed",
			slog.String("error", err.Error()),
			slog.Duration("retry_in", wait))
	}

	if err := backoff.RetryNotify(apply, retry, notify); err != nil {
		return fmt.Errorf("migrations failed after %d attempts: %w", attempts, err)
	}
	return nil
}

// migrateLog routes golang-migrate output to slog at debug level.
type migrateLog struct{ logger *slog.Logger }

func (l migrateLog) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (migrateLog) Verbose() bool { return false }
