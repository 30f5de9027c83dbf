package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentetemporada/backend-go/internal/config"
	"github.com/agentetemporada/backend-go/internal/forecast"
)

const (
	forecastResultKeyPrefix = "forecast:result"
	forecastScanBatchSize   = 100
)

// ForecastCache stores computed forecast results keyed by a request hash.
// Two identical requests within the TTL share one computation.
type ForecastCache interface {
	GetResult(ctx context.Context, key string) (*forecast.Result, bool, error)
	SetResult(ctx context.Context, key string, result *forecast.Result) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetResult(ctx context.Context, key string) (*forecast.Result, bool, error) {
	payload, err := c.client.Get(ctx, buildResultKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result forecast.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode forecast result cache: %w", err)
	}

	return &result, true, nil
}

func (c *redisForecastCache) SetResult(ctx context.Context, key string, result *forecast.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode forecast result cache: %w", err)
	}

	if err := c.client.Set(ctx, buildResultKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastResultKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastCache) GetResult(ctx context.Context, key string) (*forecast.Result, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetResult(ctx context.Context, key string, result *forecast.Result) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildResultKey(hash string) string {
	return fmt.Sprintf("%s:%s", forecastResultKeyPrefix, hash)
}
