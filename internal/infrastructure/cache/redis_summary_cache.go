package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/billing/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSummaryCache implements CustomerSummaryCache using Redis.
// This is suitable for distributed deployments where multiple instances
// need to share the recomputed summaries.
type RedisSummaryCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DefaultSummaryTTL bounds staleness if an invalidation is ever missed
const DefaultSummaryTTL = 15 * time.Minute

// NewRedisSummaryCache creates a new Redis-based customer summary cache
func NewRedisSummaryCache(cfg RedisConfig) (*RedisSummaryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSummaryCache{
		client:    client,
		keyPrefix: "customer:summary:",
		ttl:       DefaultSummaryTTL,
	}, nil
}

// NewRedisSummaryCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisSummaryCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisSummaryCache {
	if keyPrefix == "" {
		keyPrefix = "customer:summary:"
	}
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &RedisSummaryCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached summary for a customer, or nil on a cache miss
func (c *RedisSummaryCache) Get(ctx context.Context, customerID uuid.UUID) (*partner.CustomerSummary, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+customerID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read customer summary: %w", err)
	}

	var summary partner.CustomerSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode customer summary: %w", err)
	}
	return &summary, nil
}

// Set stores the summary for a customer
func (c *RedisSummaryCache) Set(ctx context.Context, summary partner.CustomerSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode customer summary: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+summary.CustomerID.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store customer summary: %w", err)
	}
	return nil
}

// Invalidate drops the cached summary for a customer
func (c *RedisSummaryCache) Invalidate(ctx context.Context, customerID uuid.UUID) error {
	if err := c.client.Del(ctx, c.keyPrefix+customerID.String()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate customer summary: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisSummaryCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisSummaryCache implements CustomerSummaryCache
var _ partner.CustomerSummaryCache = (*RedisSummaryCache)(nil)
