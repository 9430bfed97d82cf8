package storage

import (
	"context"
	"fmt"

	"github.com/alumnet/modguard/internal/redis"
	"github.com/alumnet/modguard/internal/setup/config"
	"go.uber.org/zap"
)

// Open creates the store selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	driver := cfg.Storage.Driver
	logger.Info("Opening moderation store", zap.String("driver", driver))

	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile:
		return NewFileStore(cfg.Storage.FilePath, logger)
	case DriverRedis:
		manager := redis.NewManager(&cfg.Redis, logger)
		client, err := manager.GetClient(redis.StoreDBIndex)
		if err != nil {
			manager.Close()
			return nil, err
		}

		store := NewRedisStore(client, cfg.Storage.KeyPrefix)
		store.close = manager.Close
		return store, nil
	case DriverSQLite:
		return NewSQLiteStore(cfg.SQLite.Path)
	case DriverPostgres:
		return NewPostgresStore(ctx, &cfg.PostgreSQL, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
