package config

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/wiwi-waitlist/internal/log"
	pkgredis "github.com/akeren/wiwi-waitlist/pkg/redis"
	"github.com/akeren/wiwi-waitlist/pkg/utils"
)

var ErrCacheNotConfigured = errors.New("cache: neither REDIS_URL nor REDIS_HOST is set")

// Cache backs admin sessions and, through its Redis client, the distributed rate limiter.
type Cache interface {
	// Get returns ("", nil) when a key is not found.
	Get(ctx context.Context, key string) (string, error)
	// Set uses ttl=0 for no expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

type CacheConfig struct {
	redis pkgredis.Config
}

// NewCacheConfig reads REDIS_URL, or REDIS_HOST/PORT/PASSWORD/DB when no URL is set.
func NewCacheConfig() *CacheConfig {
	cfg := pkgredis.Config{
		URL:      utils.GetEnvTrimmed("REDIS_URL"),
		Host:     utils.GetEnvTrimmed("REDIS_HOST"),
		Port:     utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379"),
		Password: GetValueFromEnvironmentVariable("REDIS_PASSWORD", ""),
	}

	// An invalid REDIS_DB keeps database 0.
	if db, err := utils.GetEnvPositiveInt("REDIS_DB", 0); err == nil {
		cfg.DB = db
	}

	return &CacheConfig{redis: cfg}
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.redis.URL != "" || cc.redis.Host != ""
}

func (cc *CacheConfig) NewCache() (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}

	cache, err := pkgredis.NewRedisCache(&cc.redis)
	if err != nil {
		return nil, err
	}
	return cache, nil
}

// NewCacheOrNil degrades to no cache: sessions and rate limits then live in process memory.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Cache (Redis) is not configured; proceeding without external cache")
		return nil
	}

	cache, err := cc.NewCache()
	if err != nil {
		logger.Error("Failed to connect to Cache (Redis); proceeding without external cache", "error", err)
		return nil
	}

	logger.Info("Cache (Redis) connected successfully")
	return cache
}

func CloseCache(cache Cache, logger *log.Logger) {
	if cache == nil {
		return
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return
	}

	logger.Info("Cache connection closed")
}
