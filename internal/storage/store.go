// Package storage holds the client-local key-value stores the play gate
// persists into. Every store treats Put as a full overwrite of one record.
package storage

import (
	"context"
	"fmt"
	"strings"
)

// Store is a minimal key-value store. Get returns models.ErrRecordNotFound
// on a miss; Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Store drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Open creates the store named by driver. dsn is the directory for the file
// driver, the database path for sqlite, the address for redis and the
// connection URL for postgres.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile, "":
		return NewFileStore(dsn)
	case DriverSQLite:
		return NewSQLiteStore(dsn)
	case DriverRedis:
		client, err := NewRedisClient(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client), nil
	case DriverPostgres:
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
