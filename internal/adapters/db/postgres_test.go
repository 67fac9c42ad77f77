// internal/adapters/db/postgres_test.go
package db

import (
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/preloved-be/internal/pkg/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConfig_URL(t *testing.T) {
	cfg := &Config{
		Host:           "db.internal",
		Port:           "5433",
		User:           "preloved",
		Password:       "p@ss/word",
		Database:       "preloved_catalog",
		SSLMode:        "require",
		ConnectTimeout: 7 * time.Second,
	}

	u, err := url.Parse(cfg.URL())
	require.NoError(t, err)

	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5433", u.Host)
	assert.Equal(t, "/preloved_catalog", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss/word", pw)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
	assert.Equal(t, "7", u.Query().Get("connect_timeout"))
}

func TestConfigFrom(t *testing.T) {
	settings := config.DatabaseConfig{
		Host:               "localhost",
		Port:               "5432",
		User:               "u",
		Name:               "n",
		MaxConnections:     25,
		MinConnections:     5,
		StatementCacheMode: "exec",
	}

	cfg := ConfigFrom(settings)
	assert.Equal(t, "n", cfg.Database)
	assert.Equal(t, "exec", cfg.ExecMode)

	small := cfg.WithPoolSize(4, 1)
	assert.Equal(t, int32(4), small.MaxConnections)
	assert.Equal(t, int32(1), small.MinConnections)
	assert.Equal(t, int32(25), cfg.MaxConnections, "original is untouched")
}

func TestConfig_PoolConfig(t *testing.T) {
	base := Config{Host: "localhost", Port: "5432", User: "u", Password: "p", Database: "d", SSLMode: "disable"}

	tests := []struct {
		name     string
		mutate   func(*Config)
		wantMode pgx.QueryExecMode
		wantMax  int32
		wantErr  string
	}{
		{
			name:     "defaults",
			mutate:   func(*Config) {},
			wantMode: pgx.QueryExecModeCacheDescribe,
		},
		{
			name: "explicit_pool_and_mode",
			mutate: func(c *Config) {
				c.MaxConnections = 12
				c.ExecMode = "Simple_Protocol"
			},
			wantMode: pgx.QueryExecModeSimpleProtocol,
			wantMax:  12,
		},
		{
			name:    "unknown_mode",
			mutate:  func(c *Config) { c.ExecMode = "turbo" },
			wantErr: "unknown exec mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)

			pc, err := cfg.poolConfig(quietLogger())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, pc.ConnConfig.DefaultQueryExecMode)
			if tt.wantMax > 0 {
				assert.Equal(t, tt.wantMax, pc.MaxConns)
			}
			assert.Nil(t, pc.ConnConfig.Tracer)
		})
	}
}

func TestDriverURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@h:5432/d?sslmode=disable", "pgx5://u:p@h:5432/d?sslmode=disable"},
		{"postgresql://u@h/d", "pgx5://u@h/d"},
		{"pgx5://u@h/d", "pgx5://u@h/d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, driverURL(tt.in))
	}
}
