// Package cache provides a two-tier response cache for analytics
// payloads: a small in-process LRU in front of an optional shared
// Redis tier. Redis access runs behind a circuit breaker so a dead
// cache degrades to recomputation instead of request failures.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/mohrashard/LiverLens/internal/domain"
)

const keyPrefix = "liverlens:analytics:"

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// ResponseCache caches serialized analytics responses keyed by
// operation, owner and filter. Safe for concurrent use.
type ResponseCache struct {
	enabled    bool
	defaultTTL time.Duration
	memory     *lru.Cache[string, memoryEntry]
	redis      *redis.Client
	breaker    *gobreaker.CircuitBreaker
	log        *logrus.Logger
}

// New builds a response cache from configuration. With caching
// disabled every lookup misses and every store is a no-op. With no
// Redis URL configured only the memory tier is used.
func New(cfg domain.CacheConfig, logger *logrus.Logger) (*ResponseCache, error) {
	c := &ResponseCache{
		enabled:    cfg.Enabled,
		defaultTTL: cfg.DefaultTTL,
		log:        logger,
	}
	if !cfg.Enabled {
		return c, nil
	}
	if c.defaultTTL <= 0 {
		c.defaultTTL = 5 * time.Minute
	}

	size := cfg.MemorySize
	if size <= 0 {
		size = 256
	}
	memory, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}
	c.memory = memory

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing Redis URL: %w", err)
		}
		opts.PoolSize = cfg.PoolSize
		opts.PoolTimeout = cfg.PoolTimeout
		opts.MaxRetries = cfg.MaxRetries
		c.redis = redis.NewClient(opts)

		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "analytics-cache",
			MaxRequests: 5,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("Cache circuit breaker state changed")
			},
		})
	}

	return c, nil
}

// Key derives a deterministic cache key from the operation name, the
// owner and the request parameters.
func Key(operation, ownerID string, params any) string {
	paramBytes, _ := json.Marshal(params)
	hash := sha256.Sum256(append([]byte(operation+"::"+ownerID+"::"), paramBytes...))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// Get returns the cached payload for key, checking the memory tier
// first and falling back to Redis. Redis failures count as misses.
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	if entry, ok := c.memory.Get(key); ok {
		if time.Now().Before(entry.expiresAt) {
			return entry.payload, true
		}
		c.memory.Remove(key)
	}

	if c.redis == nil {
		return nil, false
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.redis.Get(ctx, key).Bytes()
	})
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Debug("Redis cache lookup failed")
		}
		return nil, false
	}

	payload := result.([]byte)
	c.memory.Add(key, memoryEntry{payload: payload, expiresAt: time.Now().Add(c.defaultTTL)})
	return payload, true
}

// Set stores a payload under key in both tiers. Redis failures are
// logged and swallowed; the memory tier always succeeds.
func (c *ResponseCache) Set(ctx context.Context, key string, payload []byte) {
	if !c.enabled {
		return
	}

	c.memory.Add(key, memoryEntry{payload: payload, expiresAt: time.Now().Add(c.defaultTTL)})

	if c.redis == nil {
		return
	}
	if _, err := c.breaker.Execute(func() (any, error) {
		return nil, c.redis.Set(ctx, key, payload, c.defaultTTL).Err()
	}); err != nil {
		c.log.WithError(err).Debug("Redis cache store failed")
	}
}

// Purge drops the memory tier. Redis entries expire by TTL.
func (c *ResponseCache) Purge() {
	if c.memory != nil {
		c.memory.Purge()
	}
}

// Healthy reports whether the Redis tier is reachable. A disabled or
// memory-only cache is always healthy.
func (c *ResponseCache) Healthy(ctx context.Context) bool {
	if !c.enabled || c.redis == nil {
		return true
	}
	return c.redis.Ping(ctx).Err() == nil
}

// Close releases the Redis connection.
func (c *ResponseCache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}
