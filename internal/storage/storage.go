package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/matchtickets/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrConflict = errors.New("storage: concurrent update did not settle")

// UpdateFunc receives the current value of a key and returns the value to
// store. Returning an error aborts the update and leaves the key untouched.
type UpdateFunc func(current []byte, exists bool) ([]byte, error)

// Store is the device-local key-value persistence used when the remote API is
// unreachable. Update is the only way to change a collection: the read, the
// change and the write happen as one unit, so readers never see a half
// written value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Close() error
}

// Open builds the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, redisCfg config.RedisConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	case "redis":
		client, err := NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.Namespace), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := NewPGStore(pool, cfg.Namespace)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
