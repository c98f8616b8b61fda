// Package storage persists small JSON documents per user, keyed by strings
// such as "profile_{userId}".
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/caltrack/web/config"
	"github.com/pageza/caltrack/web/internal/database"
)

// ErrNotFound is returned when a key has no value
var ErrNotFound = errors.New("storage: key not found")

// Store is a key/value store for serialized documents
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Open returns the store selected by cfg.StoreDriver
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreRedis:
		client, err := database.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, "caltrack"), nil
	case config.StoreSQLite, config.StorePostgres:
		db, err := database.New(cfg)
		if err != nil {
			return nil, err
		}
		return NewGormStore(db), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}
}
