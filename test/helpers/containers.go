// test/helpers/containers.go
package helpers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/preloved-be/internal/adapters/db"
)

const postgresImage = "16-alpine"

// catalogTables are emptied between tests, children first.
var catalogTables = []string{"import_jobs", "items"}

// TestDB is a migrated PostgreSQL running in a throwaway container.
type TestDB struct {
	Database *db.Database
	Config   *db.Config
}

// Pool is the underlying pgx pool.
func (d *TestDB) Pool() *pgxpool.Pool { return d.Database.Pool() }

// Truncate empties every catalog table.
func (d *TestDB) Truncate(t *testing.T) {
	t.Helper()
	_, err := d.Database.Exec(context.Background(),
		"TRUNCATE TABLE "+strings.Join(catalogTables, ", ")+" CASCADE")
	require.NoError(t, err, "truncate catalog tables")
}

// SetupTestDB starts PostgreSQL with dockertest and applies the embedded
// migrations. It skips under -short.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container test skipped in short mode")
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "docker unavailable")
	pool.MaxWait = 90 * time.Second

	container, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        postgresImage,
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_catalog",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := pool.Purge(container); err != nil {
			t.Logf("purge postgres container: %v", err)
		}
	})
	_ = container.Expire(300)

	cfg := &db.Config{
		Host:               "localhost",
		Port:               container.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_catalog",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		ConnectTimeout:     5 * time.Second,
		EnableQueryLogging: testing.Verbose(),
	}

	ctx := context.Background()
	var database *db.Database
	require.NoError(t, pool.Retry(func() error {
		d, err := db.NewDatabase(ctx, cfg, TestLogger())
		if err != nil {
			return err
		}
		database = d
		return nil
	}), "postgres never became reachable")
	t.Cleanup(database.Close)

	require.NoError(t, db.RunMigrationsWithRetry(ctx, cfg.URL(), TestLogger(), 3), "migrate test schema")

	return &TestDB{Database: database, Config: cfg}
}

// TestRedis is an in-process miniredis with a connected client.
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// SetupTestRedis starts miniredis for the duration of the test.
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &TestRedis{Client: client, Server: mr}
}
