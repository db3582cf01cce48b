package database

import (
	"context"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/tonermart/backend/internal/config"
)

// InitRedis connects to redis for the session cache. Redis is optional:
// on connection failure the caller gets nil and sessions fall back to
// token expiry alone.
func InitRedis(cfg *config.Config, log *zap.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisHost + ":" + cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Warn("redis connection failed, continuing without session cache", zap.Error(err))
		return nil
	}

	log.Info("redis connection established")
	return rdb
}
