package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisChecker reports healthy when the cache answers PING
type RedisChecker struct {
	// Addr is the Redis address (e.g., "localhost:6379")
	Addr string

	// Timeout bounds the probe
	Timeout time.Duration
}

// NewRedisChecker creates a new Redis health checker
func NewRedisChecker(addr string) *RedisChecker {
	return &RedisChecker{
		Addr:    addr,
		Timeout: 5 * time.Second,
	}
}

// Check performs the Redis PING probe. A fresh client per check keeps
// the checker free of connection state between polls.
func (r *RedisChecker) Check(ctx context.Context) Result {
	start := time.Now()

	client := redis.NewClient(&redis.Options{
		Addr:        r.Addr,
		DialTimeout: r.Timeout,
		ReadTimeout: r.Timeout,
	})
	defer client.Close()

	checkCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	if err := client.Ping(checkCtx).Err(); err != nil {
		return failure(start, fmt.Sprintf("redis ping failed: %v", err))
	}

	return success(start, fmt.Sprintf("redis ping to %s succeeded", r.Addr))
}

// Type returns the health check type
func (r *RedisChecker) Type() CheckType {
	return CheckTypeRedis
}
