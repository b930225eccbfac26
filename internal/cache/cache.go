// Package cache stores built reports in Redis so repeated requests for the
// same place do not hit the weather provider.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/golden-hour/internal/forecast"
	"github.com/neexbeast/golden-hour/internal/report"
	"github.com/neexbeast/golden-hour/internal/solar"
)

// DefaultTTL is how long a report stays cached when no TTL is configured.
const DefaultTTL = 30 * time.Minute

const pingTimeout = 5 * time.Second

// Connect parses redisURL, creates a client, and verifies connectivity with a ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// Cache wraps a Redis client and provides typed get/set/delete for reports.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache. A non-positive ttl selects DefaultTTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Key returns the Redis key for a report. Coordinates are rounded to two
// decimals (about 1 km), so nearby requests share an entry.
func Key(policy forecast.Policy, coord solar.Coordinate) string {
	return fmt.Sprintf("report:%s:%.2f:%.2f", policy, coord.Latitude, coord.Longitude)
}

// Get retrieves a cached report.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) Get(ctx context.Context, policy forecast.Policy, coord solar.Coordinate) (*report.Report, error) {
	k := Key(policy, coord)
	val, err := c.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for %s: %w", k, err)
	}

	var r report.Report
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, fmt.Errorf("unmarshaling cached report %s: %w", k, err)
	}

	return &r, nil
}

// Set stores a report under its own policy and coordinate with the configured TTL.
func (c *Cache) Set(ctx context.Context, r *report.Report) error {
	if r == nil {
		return nil
	}

	k := Key(r.Policy, r.Coordinate)
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report %s: %w", k, err)
	}

	if err := c.client.Set(ctx, k, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for %s: %w", k, err)
	}

	return nil
}

// Delete removes the cached report for policy and coord.
func (c *Cache) Delete(ctx context.Context, policy forecast.Policy, coord solar.Coordinate) error {
	k := Key(policy, coord)
	if err := c.client.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("cache delete for %s: %w", k, err)
	}
	return nil
}
