package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lms/config"
	"lms/logger"

	"github.com/go-redis/redis/v8"
)

type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Catalog caches public catalog listings. Nil disables caching.
var Catalog Cache

const catalogVersionKey = "catalog:version"

func InitCache() {
	cfg := config.AppConfig
	if cfg.RedisAddr == "" || cfg.CatalogCacheSeconds == 0 {
		Catalog = nil
		return
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, catalog cache disabled")
		Catalog = nil
		return
	}
	Catalog = NewRedisCache(rdb)
	logger.Log.Info().Str("addr", cfg.RedisAddr).Msg("catalog cache enabled")
}

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return r.rdb.Incr(ctx, key).Result()
}

// CatalogKey builds a listing key under the current catalog version, so a
// version bump invalidates every cached page at once.
func CatalogKey(ctx context.Context, parts ...string) (string, bool) {
	if Catalog == nil {
		return "", false
	}
	version, ok, err := Catalog.Get(ctx, catalogVersionKey)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("catalog cache version lookup failed")
		return "", false
	}
	if !ok {
		version = "0"
	}
	return fmt.Sprintf("catalog:v%s:%s", version, strings.Join(parts, ":")), true
}

// BumpCatalogVersion invalidates cached catalog listings.
func BumpCatalogVersion(ctx context.Context) {
	if Catalog == nil {
		return
	}
	if _, err := Catalog.Incr(ctx, catalogVersionKey); err != nil {
		logger.Log.Warn().Err(err).Msg("failed to bump catalog cache version")
	}
}

func CatalogTTL() time.Duration {
	return time.Duration(config.AppConfig.CatalogCacheSeconds) * time.Second
}
