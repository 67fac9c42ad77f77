// internal/pkg/config/config.go
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// DevelopmentAdminToken is accepted outside production when ADMIN_TOKENS is unset.
const DevelopmentAdminToken = "development-admin-token"

var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Config holds all application configuration
type Config struct {
	App            AppConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Asynq          AsynqConfig
	AWS            AWSConfig
	Catalog        CatalogConfig
	Vision         VisionConfig
	FileProcessing FileProcessingConfig
	Security       SecurityConfig
	Server         ServerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, test, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text, dev
	LogSample   float64
}

type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string `required:"true"`
	User               string `required:"true"`
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	StatementCacheMode string
	EnableQueryLogging bool
}

type RedisConfig struct {
	Host            string
	Port            string
	Password        string
	DB              int
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int
	MinIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PoolTimeout     time.Duration
	// TTL is the default lifetime of cached documents.
	TTL time.Duration
}

// Addr is host:port.
func (r RedisConfig) Addr() string { return net.JoinHostPort(r.Host, r.Port) }

type AsynqConfig struct {
	RedisAddr       string `required:"true"`
	RedisPassword   string
	RedisDB         int
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	ShutdownTimeout time.Duration
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string // MinIO in development
	UsePathStyle    bool
}

// CatalogConfig tunes browsing. Prices are whole currency units.
type CatalogConfig struct {
	PriceMin        int64
	PriceMax        int64
	DefaultPageSize int // 0 returns the full result set
	MaxPageSize     int
	SnapshotTTL     time.Duration
	FacetTTL        time.Duration
	Locale          string
	MemoLimit       int
}

// VisionConfig configures the external condition estimator
type VisionConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	RPS      float64
	Burst    int
	// ResultTTL bounds cached estimates and the image links they carry
	ResultTTL time.Duration
}

type FileProcessingConfig struct {
	ExcelMaxSizeMB  int
	ImageMaxSizeMB  int
	TempDir         string
	CleanupInterval time.Duration
	TempMaxAge      time.Duration
	JobRetention    time.Duration
}

type SecurityConfig struct {
	AdminTokens       []string
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	SecureHeaders     bool
	SecretsProvider   string // env, aws
	SecretName        string
}

type ServerConfig struct {
	Host              string
	Port              string `required:"true"`
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GracefulTimeout   time.Duration
	// RequestTimeout bounds handler time; zero disables it.
	RequestTimeout    time.Duration
	Compression       bool
	EnablePprof       bool
	EnableMetrics     bool
	EnableHealthCheck bool
	TLSEnabled        bool
	TLSCertFile       string
	TLSKeyFile        string
}

// Load reads configuration from an optional YAML file named by CONFIG_FILE
// and the environment, which wins. Keys map to variables by upper-casing
// and replacing dots, so catalog.price_max is CATALOG_PRICE_MAX. Malformed
// values fail the load.
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if env == "development" || env == "local" {
		if err := godotenv.Load(); err == nil {
			logger.Info(".env file loaded")
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		logger.Info("config file loaded", slog.String("path", path))
	}

	r := &reader{v: v}
	dev := env == "development"

	cfg := &Config{
		App: AppConfig{
			Name:        r.str("app.name", "preloved-api"),
			Environment: env,
			Version:     r.str("app.version", "dev"),
			LogLevel:    r.str("log.level", "debug"),
			LogFormat:   r.str("log.format", "json"),
			LogSample:   r.float("log.sample", 1),
		},
		Database: DatabaseConfig{
			Host:               r.str("db.host", "localhost"),
			Port:               r.str("db.port", "5432"),
			User:               r.str("db.user", "preloved"),
			Password:           r.str("db.password", "preloved_dev"),
			Name:               r.str("db.name", "preloved_catalog"),
			SSLMode:            r.str("db.ssl_mode", "disable"),
			MaxConnections:     int32(r.integer("db.max_connections", 25)),
			MinConnections:     int32(r.integer("db.min_connections", 5)),
			MaxConnLifetime:    r.duration("db.connection_lifetime", time.Hour),
			MaxConnIdleTime:    r.duration("db.idle_time", 30*time.Minute),
			HealthCheckPeriod:  r.duration("db.health_check_period", time.Minute),
			ConnectTimeout:     r.duration("db.connect_timeout", 10*time.Second),
			StatementCacheMode: r.str("db.statement_cache_mode", "cache_describe"),
			EnableQueryLogging: r.boolean("db.query_logging", dev),
		},
		Redis: RedisConfig{
			Host:            r.str("redis.host", "localhost"),
			Port:            r.str("redis.port", "6379"),
			Password:        r.str("redis.password", ""),
			DB:              r.integer("redis.db", 0),
			MaxRetries:      r.integer("redis.max_retries", 3),
			MinRetryBackoff: r.duration("redis.min_retry_backoff", 8*time.Millisecond),
			MaxRetryBackoff: r.duration("redis.max_retry_backoff", 512*time.Millisecond),
			DialTimeout:     r.duration("redis.dial_timeout", 5*time.Second),
			ReadTimeout:     r.duration("redis.read_timeout", 3*time.Second),
			WriteTimeout:    r.duration("redis.write_timeout", 3*time.Second),
			PoolSize:        r.integer("redis.pool_size", 10),
			MinIdleConns:    r.integer("redis.min_idle_conns", 2),
			ConnMaxLifetime: r.duration("redis.conn_max_lifetime", 0),
			ConnMaxIdleTime: r.duration("redis.conn_max_idle_time", 5*time.Minute),
			PoolTimeout:     r.duration("redis.pool_timeout", 4*time.Second),
			TTL:             r.duration("redis.ttl", time.Hour),
		},
		AWS: AWSConfig{
			Region:          r.str("aws.region", "us-east-1"),
			AccessKeyID:     r.str("aws.access_key_id", "minioadmin"),
			SecretAccessKey: r.str("aws.secret_access_key", "minioadmin123"),
			S3Bucket:        r.str("aws.s3_bucket", "preloved-images"),
			S3Endpoint:      r.str("aws.s3_endpoint", ""),
			UsePathStyle:    r.boolean("aws.s3_path_style", dev),
		},
		Catalog: CatalogConfig{
			PriceMin:        r.int64("catalog.price_min", 0),
			PriceMax:        r.int64("catalog.price_max", 1000),
			DefaultPageSize: r.integer("catalog.default_page_size", 0),
			MaxPageSize:     r.integer("catalog.max_page_size", 200),
			SnapshotTTL:     r.duration("catalog.snapshot_ttl", 5*time.Minute),
			FacetTTL:        r.duration("catalog.facet_ttl", time.Minute),
			Locale:          r.str("catalog.locale", "en"),
			MemoLimit:       r.integer("catalog.memo_limit", 100_000),
		},
		Vision: VisionConfig{
			Endpoint:  r.str("vision.endpoint", ""),
			APIKey:    r.str("vision.api_key", ""),
			Timeout:   r.duration("vision.timeout", 20*time.Second),
			RPS:       r.float("vision.rps", 2),
			Burst:     r.integer("vision.burst", 4),
			ResultTTL: r.duration("vision.result_ttl", time.Hour),
		},
		FileProcessing: FileProcessingConfig{
			ExcelMaxSizeMB:  r.integer("excel.max_size_mb", 100),
			ImageMaxSizeMB:  r.integer("image.max_size_mb", 10),
			TempDir:         r.str("temp.dir", filepath.Join(os.TempDir(), "preloved")),
			CleanupInterval: r.duration("cleanup.interval", time.Hour),
			TempMaxAge:      r.duration("temp.max_age", 24*time.Hour),
			JobRetention:    r.duration("job.retention", 30*24*time.Hour),
		},
		Security: SecurityConfig{
			AdminTokens:       r.list("admin.tokens", defaultAdminTokens(env)),
			RateLimitRequests: r.integer("rate_limit.requests", 100),
			RateLimitDuration: r.duration("rate_limit.duration", time.Minute),
			AllowedOrigins:    r.list("allowed.origins", []string{"*"}),
			SecureHeaders:     r.boolean("secure.headers", env == "production"),
			SecretsProvider:   r.str("secrets.provider", "env"),
			SecretName:        r.str("secrets.name", "preloved/api"),
		},
		Server: ServerConfig{
			Host:              r.str("server.host", "0.0.0.0"),
			Port:              r.str("server.port", "8080"),
			ReadTimeout:       r.duration("server.read_timeout", 15*time.Second),
			WriteTimeout:      r.duration("server.write_timeout", 15*time.Second),
			IdleTimeout:       r.duration("server.idle_timeout", time.Minute),
			MaxHeaderBytes:    r.integer("server.max_header_bytes", 1<<20),
			GracefulTimeout:   r.duration("server.graceful_timeout", 30*time.Second),
			RequestTimeout:    r.duration("server.request_timeout", 30*time.Second),
			Compression:       r.boolean("server.compression", true),
			EnablePprof:       r.boolean("enable.pprof", dev),
			EnableMetrics:     r.boolean("enable.metrics", true),
			EnableHealthCheck: r.boolean("enable.health_check", true),
			TLSEnabled:        r.boolean("tls.enabled", false),
			TLSCertFile:       r.str("tls.cert_file", ""),
			TLSKeyFile:        r.str("tls.key_file", ""),
		},
	}
	cfg.Asynq = AsynqConfig{
		RedisAddr:       cfg.Redis.Addr(),
		RedisPassword:   cfg.Redis.Password,
		RedisDB:         r.integer("asynq.redis_db", 0),
		Concurrency:     r.integer("asynq.concurrency", 10),
		Queues:          r.queues("asynq.queues", "critical:6,default:3,low:1"),
		StrictPriority:  r.boolean("asynq.strict_priority", false),
		ShutdownTimeout: r.duration("asynq.shutdown_timeout", 30*time.Second),
	}

	if err := errors.Join(r.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration value: %w", err)
	}

	if cfg.Security.SecretsProvider == "aws" {
		ctx := context.Background()
		source, err := NewAWSSecrets(ctx, cfg.AWS.Region, cfg.Security.SecretName, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create secrets source: %w", err)
		}
		if err := cfg.ApplySecrets(ctx, source); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ApplySecrets overrides credentials with values held by source.
func (c *Config) ApplySecrets(ctx context.Context, source SecretSource) error {
	secrets, err := source.Secrets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	targets := map[string]func(string){
		SecretDBPassword: func(v string) { c.Database.Password = v },
		SecretRedisPassword: func(v string) {
			c.Redis.Password = v
			c.Asynq.RedisPassword = v
		},
		SecretVisionAPIKey: func(v string) { c.Vision.APIKey = v },
		SecretAdminTokens:  func(v string) { c.Security.AdminTokens = splitList(v) },
		SecretAWSAccessKey: func(v string) { c.AWS.AccessKeyID = v },
		SecretAWSSecretKey: func(v string) { c.AWS.SecretAccessKey = v },
	}
	for key, set := range targets {
		if v, ok := secrets[key]; ok {
			set(v)
		}
	}
	return nil
}

func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// reader pulls typed values out of viper and records the ones that do not
// parse.
type reader struct {
	v    *viper.Viper
	errs []error
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// raw returns the value at key, treating an empty string as unset.
func (r *reader) raw(key string) (any, bool) {
	val := r.v.Get(key)
	if val == nil {
		return nil, false
	}
	if s, ok := val.(string); ok && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return val, true
}

func (r *reader) fail(key string, val any, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s=%v: %w", envName(key), val, err))
}

func parse[T any](r *reader, key string, def T, conv func(any) (T, error)) T {
	val, ok := r.raw(key)
	if !ok {
		return def
	}
	out, err := conv(val)
	if err != nil {
		r.fail(key, val, err)
		return def
	}
	return out
}

func (r *reader) str(key, def string) string {
	return parse(r, key, def, cast.ToStringE)
}

func (r *reader) integer(key string, def int) int {
	return parse(r, key, def, cast.ToIntE)
}

func (r *reader) int64(key string, def int64) int64 {
	return parse(r, key, def, cast.ToInt64E)
}

func (r *reader) float(key string, def float64) float64 {
	return parse(r, key, def, cast.ToFloat64E)
}

func (r *reader) boolean(key string, def bool) bool {
	return parse(r, key, def, cast.ToBoolE)
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	return parse(r, key, def, cast.ToDurationE)
}

// list accepts a comma separated string or a YAML sequence.
func (r *reader) list(key string, def []string) []string {
	return parse(r, key, def, func(val any) ([]string, error) {
		if s, ok := val.(string); ok {
			return splitList(s), nil
		}
		return cast.ToStringSliceE(val)
	})
}

// queues accepts "name:priority,..." or a YAML mapping.
func (r *reader) queues(key, def string) map[string]int {
	out := parse(r, key, map[string]int(nil), func(val any) (map[string]int, error) {
		if s, ok := val.(string); ok {
			return parseQueues(s)
		}
		m, err := cast.ToStringMapE(val)
		if err != nil {
			return nil, err
		}
		q := make(map[string]int, len(m))
		for name, p := range m {
			if q[name], err = cast.ToIntE(p); err != nil {
				return nil, fmt.Errorf("queue %s: %w", name, err)
			}
		}
		return q, nil
	})
	if out == nil {
		out, _ = parseQueues(def)
	}
	return out
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseQueues(spec string) (map[string]int, error) {
	queues := make(map[string]int)
	for _, pair := range splitList(spec) {
		name, prio, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("queue %q has no priority", pair)
		}
		p, err := cast.ToIntE(strings.TrimSpace(prio))
		if err != nil || p < 1 {
			return nil, fmt.Errorf("queue %q: priority must be a positive integer", pair)
		}
		queues[strings.TrimSpace(name)] = p
	}
	if len(queues) == 0 {
		return nil, errors.New("no queues configured")
	}
	return queues, nil
}

func defaultAdminTokens(env string) []string {
	if env == "production" {
		return nil
	}
	return []string{DevelopmentAdminToken}
}
