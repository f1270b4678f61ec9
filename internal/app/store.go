package app

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/ministry/internal/config"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/store"
	"github.com/MrSnakeDoc/ministry/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/ministry/internal/store/redis"
	"github.com/MrSnakeDoc/ministry/internal/store/sqlite"
)

// OpenStore opens the backend selected by cfg.StoreBackend.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Warn("using the in-memory store, data will not survive a restart")
		return memory.New(), nil

	case config.BackendRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redisstore.Connect(redisstore.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("Redis initialized successfully")
		return redisstore.NewStore(client, cfg.RedisKeyPrefix), nil

	case config.BackendSQLite:
		st, err := sqlite.Open(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		log.Info("SQLite store opened", logger.String("path", cfg.SQLitePath))
		return st, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
