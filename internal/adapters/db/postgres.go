// internal/adapters/db/postgres.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"

	"github.com/ammerola/preloved-be/internal/core/ports"
	"github.com/ammerola/preloved-be/internal/pkg/config"
)

// Config describes one connection pool. Zero durations and pool sizes fall
// back to pgxpool defaults.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string

	MaxConnections    int32
	MinConnections    int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration

	// ExecMode is one of cache_statement, cache_describe, describe_exec,
	// exec or simple_protocol. Empty means cache_describe.
	ExecMode           string
	EnableQueryLogging bool
}

// ConfigFrom maps the application's database settings onto a pool config.
func ConfigFrom(s config.DatabaseConfig) *Config {
	return &Config{
		Host:               s.Host,
		Port:               s.Port,
		User:               s.User,
		Password:           s.Password,
		Database:           s.Name,
		SSLMode:            s.SSLMode,
		MaxConnections:     s.MaxConnections,
		MinConnections:     s.MinConnections,
		MaxConnLifetime:    s.MaxConnLifetime,
		MaxConnIdleTime:    s.MaxConnIdleTime,
		HealthCheckPeriod:  s.HealthCheckPeriod,
		ConnectTimeout:     s.ConnectTimeout,
		ExecMode:           s.StatementCacheMode,
		EnableQueryLogging: s.EnableQueryLogging,
	}
}

// WithPoolSize returns a copy of c limited to max connections, keeping min
// warm. Workers and the seeder need far fewer than the API.
func (c Config) WithPoolSize(max, min int32) *Config {
	c.MaxConnections, c.MinConnections = max, min
	return &c
}

// URL returns the connection string in URL form. golang-migrate and
// pgxpool.ParseConfig both accept it.
func (c *Config) URL() string {
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

var execModes = map[string]pgx.QueryExecMode{
	"cache_statement": pgx.QueryExecModeCacheStatement,
	"cache_describe":  pgx.QueryExecModeCacheDescribe,
	"describe_exec":   pgx.QueryExecModeDescribeExec,
	"exec":            pgx.QueryExecModeExec,
	"simple_protocol": pgx.QueryExecModeSimpleProtocol,
}

func (c *Config) poolConfig(logger *slog.Logger) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.URL())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if c.MaxConnections > 0 {
		pc.MaxConns = c.MaxConnections
	}
	if c.MinConnections > 0 {
		pc.MinConns = c.MinConnections
	}
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = c.MaxConnIdleTime
	}
	if c.HealthCheckPeriod > 0 {
		pc.HealthCheckPeriod = c.HealthCheckPeriod
	}

	mode := pgx.QueryExecModeCacheDescribe
	if c.ExecMode != "" {
		m, ok := execModes[strings.ToLower(c.ExecMode)]
		if !ok {
			return nil, fmt.Errorf("unknown exec mode %q", c.ExecMode)
		}
		mode = m
	}
	pc.ConnConfig.DefaultQueryExecMode = mode

	if c.EnableQueryLogging {
		pc.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   queryLogger(logger),
			LogLevel: tracelog.LogLevelDebug,
		}
	}
	return pc, nil
}

// Database is the pgx pool behind the item and job repositories.
type Database struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ ports.Database = (*Database)(nil)

// NewDatabase opens a pool and verifies it with a ping.
func NewDatabase(ctx context.Context, cfg *Config, logger *slog.Logger) (*Database, error) {
	pc, err := cfg.poolConfig(logger)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s/%s: %w", cfg.Host, cfg.Database, err)
	}

	logger.Info("database pool ready",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
		slog.Int("max_connections", int(pc.MaxConns)),
		slog.String("exec_mode", pc.ConnConfig.DefaultQueryExecMode.String()))

	return &Database{pool: pool, logger: logger}, nil
}

func (d *Database) Pool() *pgxpool.Pool { return d.pool }

func (d *Database) Close() {
	d.pool.Close()
	d.logger.Info("database pool closed")
}

func (d *Database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func (d *Database) Stats() ports.PoolStats {
	s := d.pool.Stat()
	return ports.PoolStats{
		Total:         s.TotalConns(),
		Idle:          s.IdleConns(),
		Acquired:      s.AcquiredConns(),
		Max:           s.MaxConns(),
		EmptyAcquires: s.EmptyAcquireCount(),
	}
}

func (d *Database) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginTxFunc(ctx, d.pool, pgx.TxOptions{}, fn)
}

func (d *Database) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return d.pool.Query(ctx, sql, args...)
}

func (d *Database) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return d.pool.QueryRow(ctx, sql, args...)
}

func (d *Database) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return d.pool.Exec(ctx, sql, args...)
}

var traceLevels = map[tracelog.LogLevel]slog.Level{
	tracelog.LogLevelError: slog.LevelError,
	tracelog.LogLevelWarn:  slog.LevelWarn,
	tracelog.LogLevelInfo:  slog.LevelInfo,
}

// queryLogger forwards pgx trace events to slog. Anything below info is
// logged at debug.
func queryLogger(logger *slog.Logger) tracelog.Logger {
	logger = logger.With(slog.String("component", "pgx"))
	return tracelog.LoggerFunc(func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		lvl, ok := traceLevels[level]
		if !ok {
			lvl = slog.LevelDebug
		}
		attrs := make([]slog.Attr, 0, len(data))
		for k, v := range data {
			attrs = append(attrs, slog.Any(k, v))
		}
		logger.LogAttrs(ctx, lvl, msg, attrs...)
	})
}
