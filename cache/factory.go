package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/nerith/photofold/cache/memory"
	"github.com/nerith/photofold/cache/redis"
	"github.com/nerith/photofold/config"
)

// Factory owns the configured cache provider and exposes convenience methods
// that normalize backend miss errors to ErrCacheMiss.
type Factory struct {
	provider Provider
}

// NewFactory builds the provider selected by cache_type. An unknown type is an
// error; redis connection failures fall back to the in-process cache so the
// server still starts.
func NewFactory(cfg *config.Config) (*Factory, error) {
	providerType := cfg.CacheType
	if providerType == "" {
		providerType = "memory"
	}

	options := map[string]interface{}{
		"address":  cfg.CacheRedisAddr,
		"password": cfg.CacheRedisPassword,
		"db":       cfg.CacheRedisDB,
	}

	provider, err := CreateProvider(providerType, options)
	if err != nil {
		if providerType != "redis" {
			return nil, err
		}
		log.Printf("[CacheFactory] Redis unavailable (%v), falling back to memory cache", err)
		provider, err = CreateProvider("memory", nil)
		if err != nil {
			return nil, err
		}
	}

	return &Factory{provider: provider}, nil
}

// CreateProvider builds a provider of the given type from loosely typed
// options.
func CreateProvider(providerType string, options map[string]interface{}) (Provider, error) {
	switch providerType {
	case "memory":
		memConfig := memory.Config{
			NumCounters: 1000000,
			MaxCost:     1 << 30, // 1GB
			BufferItems: 64,
			Metrics:     true,
		}
		if err := mapstructure.Decode(options, &memConfig); err != nil {
			return nil, fmt.Errorf("invalid memory cache options: %w", err)
		}
		return memory.NewMemory(memConfig)
	case "redis":
		redisConfig := redis.Config{
			Address:      "localhost:6379",
			PoolSize:     10,
			MinIdleConns: 5,
		}
		if err := mapstructure.Decode(options, &redisConfig); err != nil {
			return nil, fmt.Errorf("invalid redis cache options: %w", err)
		}
		return redis.NewRedis(&redisConfig)
	default:
		return nil, fmt.Errorf("unsupported cache provider type: %s", providerType)
	}
}

// GetProvider returns the active provider.
func (f *Factory) GetProvider() Provider {
	return f.provider
}

// Close closes the active provider.
func (f *Factory) Close() error {
	if f.provider == nil {
		return nil
	}
	return f.provider.Close()
}

// Set stores a value under key for the given TTL.
func (f *Factory) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if f.provider == nil {
		return fmt.Errorf("cache provider not initialized")
	}
	return f.provider.Set(ctx, key, value, expiration)
}

// Get loads the value for key into dest. Misses are reported as ErrCacheMiss
// regardless of backend.
func (f *Factory) Get(ctx context.Context, key string, dest interface{}) error {
	if f.provider == nil {
		return fmt.Errorf("cache provider not initialized")
	}
	err := f.provider.Get(ctx, key, dest)
	if errors.Is(err, memory.ErrCacheMiss) || errors.Is(err, redis.ErrCacheMiss) {
		return ErrCacheMiss
	}
	return err
}

// Delete removes a key.
func (f *Factory) Delete(ctx context.Context, key string) error {
	if f.provider == nil {
		return fmt.Errorf("cache provider not initialized")
	}
	return f.provider.Delete(ctx, key)
}

// Exists reports whether a key is present.
func (f *Factory) Exists(ctx context.Context, key string) (bool, error) {
	if f.provider == nil {
		return false, fmt.Errorf("cache provider not initialized")
	}
	return f.provider.Exists(ctx, key)
}
