// Package cache wraps Redis for two concerns the job drivers share: a
// short-TTL cache of in-flight scrape results (so a retry within the same
// minute does not re-hit a source that already answered) and a distributed
// lock that serializes overlapping invocations of the same job type
// (spec §5: "transition-events" especially must not race itself across
// two overlapping cron firings).
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin Redis client. A nil *Cache is valid: every method
// degrades to a cache-miss / lock-always-granted no-op, so callers can wire
// it unconditionally and only lose the optimization when Redis is
// unconfigured.
type Cache struct {
	client *redis.Client
}

// New builds a Cache against addr ("host:port"). It does not dial eagerly;
// redis.NewClient is lazy, so a down Redis only surfaces on first command.
func New(addr string) *Cache {
	if addr == "" {
		return nil
	}
	return &Cache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// GetScrapeResult returns a previously cached raw response body for key, if
// still fresh.
func (c *Cache) GetScrapeResult(ctx context.Context, key string) (string, bool, error) {
	if c == nil {
		return "", false, nil
	}
	val, err := c.client.Get(ctx, scrapeKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: get: %w", err)
	}
	return val, true, nil
}

// SetScrapeResult caches body under key for ttl.
func (c *Cache) SetScrapeResult(ctx context.Context, key, body string, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	if err := c.client.Set(ctx, scrapeKey(key), body, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

// AcquireJobLock attempts to take the distributed lock for jobType,
// returning ok=false (not an error) when another invocation already holds
// it. The returned release func must be called once the caller is done,
// whether or not the run succeeded. When Redis is unconfigured, the lock is
// always granted and release is a no-op.
func (c *Cache) AcquireJobLock(ctx context.Context, jobType string, ttl time.Duration) (release func(), ok bool, err error) {
	if c == nil {
		return func() {}, true, nil
	}
	key := lockKey(jobType)
	acquired, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("cache: acquire lock: %w", err)
	}
	if !acquired {
		return func() {}, false, nil
	}
	return func() {
		c.client.Del(context.Background(), key)
	}, true, nil
}

func scrapeKey(key string) string { return "sportfeed:scrape:" + key }
func lockKey(jobType string) string { return "sportfeed:lock:" + jobType }
