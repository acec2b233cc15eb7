// Package cache provides the redis client used by the readiness checker.
// The research components that will consume the cache are not built yet.
package cache

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/stockresearch/backend/internal/errors"
	"github.com/stockresearch/backend/internal/observability"
)

// Client wraps a redis connection built from the derived cache URL.
type Client struct {
	rdb *redis.Client
}

// New parses the cache connection string and constructs the client. Like the
// database pool, connecting is lazy; an unreachable cache surfaces through
// Probe rather than failing startup.
func New(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.NewPermanentf("parsing redis url: %w", err)
	}
	return &Client{rdb: redis.NewClient(opts)}, nil
}

// Probe confirms the cache answers a PING.
func (c *Client) Probe(ctx context.Context) error {
	observability.GetMetrics().CacheProbes.Inc()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		observability.GetMetrics().CacheProbeFailures.Inc()
		return errors.NewTransientf("cache ping: %w", err)
	}
	return nil
}

// Close releases the client's connections.
func (c *Client) Close() error {
	return c.rdb.Close()
}
