package infra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON read-through cache on Redis, guarded by the circuit breaker.
// Every method is best-effort: a tripped breaker or Redis error surfaces as a
// miss / no-op so callers always fall back to the database.
type Cache struct {
	rdb *redis.Client
	cb  *CircuitBreaker
}

func NewCache(rdb *redis.Client, cb *CircuitBreaker) *Cache {
	return &Cache{rdb: rdb, cb: cb}
}

// GetJSON loads key into dest. Returns false on miss, breaker open, or error.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	var raw string
	err := c.cb.Execute(func() error {
		var err error
		raw, err = c.rdb.Get(ctx, key).Result()
		if err == redis.Nil {
			raw = ""
			return nil
		}
		return err
	})
	if err != nil || raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), dest) == nil
}

// SetJSON stores v under key with a TTL. Errors are swallowed by the breaker.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.cb.Execute(func() error {
		return c.rdb.Set(ctx, key, data, ttl).Err()
	})
}

// Delete removes a key (cache invalidation after writes).
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	_ = c.cb.Execute(func() error {
		return c.rdb.Del(ctx, keys...).Err()
	})
}

// BreakerState exposes the breaker for the health endpoint.
func (c *Cache) BreakerState() CBState { return c.cb.State() }
