// internal/core/ports/database.go
package ports

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PoolStats is a point-in-time view of the connection pool.
type PoolStats struct {
	Total         int32 `json:"total"`
	Idle          int32 `json:"idle"`
	Acquired      int32 `json:"acquired"`
	Max           int32 `json:"max"`
	EmptyAcquires int64 `json:"empty_acquires"`
}

// Database is the part of the Postgres pool that repositories use.
type Database interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// WithTx runs fn in a transaction that commits when fn returns nil and
	// rolls back otherwise.
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error

	Ping(ctx context.Context) error
	Stats() PoolStats
}
