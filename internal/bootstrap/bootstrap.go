// Package bootstrap turns configuration into the long-lived dependencies
// shared by the server and the command line tools.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/hongminglow/budget-be/internal/auth"
	"github.com/hongminglow/budget-be/internal/config"
	"github.com/hongminglow/budget-be/internal/storage"
	"github.com/hongminglow/budget-be/internal/storage/memory"
	"github.com/hongminglow/budget-be/internal/storage/postgres"
	"github.com/hongminglow/budget-be/internal/storage/sqlite"
)

// OpenStore opens the store selected by cfg.StorageDriver.
func OpenStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return postgres.NewStore(ctx, cfg.DatabaseURL)
	case config.DriverSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case config.DriverMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// OpenRevocationList connects to Redis when REDIS_ADDR is set and falls back
// to a process-local list otherwise. The returned close func is never nil.
func OpenRevocationList(ctx context.Context, cfg config.Config, log *zap.Logger) (auth.RevocationList, func() error, error) {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set; token revocations are kept in memory")
		return auth.NewMemoryRevocationList(), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info("token revocations stored in redis", zap.String("addr", cfg.RedisAddr))
	return auth.NewRedisRevocationList(client), client.Close, nil
}
