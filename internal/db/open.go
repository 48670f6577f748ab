package db

import (
	"context"
	"fmt"

	"bizwars/internal/game"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open returns a migrated store for driver and a func that releases it.
func Open(ctx context.Context, driver, databaseURL, sqlitePath string, opts PoolOptions) (game.Store, func(), error) {
	switch driver {
	case DriverSQLite:
		store, err := OpenSQLite(sqlitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", sqlitePath, err)
		}
		return store, func() { _ = store.Close() }, nil
	case DriverPostgres, "":
		pool, err := Connect(ctx, databaseURL, opts)
		if err != nil {
			return nil, nil, err
		}
		store := NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return store, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
