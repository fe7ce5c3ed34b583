package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/resume-ingest/internal/common"
)

// Counter is the subset of the redis client the limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RateLimiterConfig configures the fixed-window limiter.
type RateLimiterConfig struct {
	Client    Counter
	Limit     int
	Window    time.Duration
	KeyPrefix string
	Extractor func(c *gin.Context) string
	Logger    *slog.Logger
}

// NewRedisClient connects to redis and pings it once.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// NewRateLimiter counts requests per caller in a fixed window. Redis errors
// let the request through.
func NewRateLimiter(cfg RateLimiterConfig) gin.HandlerFunc {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:upload:"
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Extractor == nil {
		cfg.Extractor = func(c *gin.Context) string {
			if caller := callerOf(c); caller.UserID != uuid.Nil {
				return caller.UserID.String()
			}
			return c.ClientIP()
		}
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := cfg.Extractor(c)
		if id == "" {
			id = "anonymous"
		}
		key := cfg.KeyPrefix + id

		count, err := cfg.Client.Incr(ctx, key).Result()
		if err != nil {
			cfg.Logger.Warn("ratelimit.incr.failed", "key", key, "error", err)
			c.Next()
			return
		}
		ttl, err := cfg.Client.TTL(ctx, key).Result()
		if err != nil {
			cfg.Logger.Warn("ratelimit.ttl.failed", "key", key, "error", err)
			ttl = 0
		}
		// a key without expiry would never reset; (re)arm the window
		if count == 1 || (err == nil && ttl < 0) {
			if armed := expireWindow(ctx, cfg, key); armed {
				ttl = cfg.Window
			}
		}
		reset := 0
		if ttl > 0 {
			reset = int(ttl.Seconds())
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Reset", strconv.Itoa(reset))

		if count > int64(cfg.Limit) {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(reset))
			common.LoggerFromContext(ctx, cfg.Logger).Warn("ratelimit.exceeded", "key", key, "count", count)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":             "rate limit exceeded",
				"rate_limit":        cfg.Limit,
				"rate_limit_window": cfg.Window.String(),
				"retry_after_sec":   reset,
			})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.Limit-int(count)))
		c.Next()
	}
}

// expireWindow sets the window on key even if the request is already gone.
func expireWindow(ctx context.Context, cfg RateLimiterConfig, key string) bool {
	ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := cfg.Client.Expire(ectx, key, cfg.Window).Err(); err != nil {
		cfg.Logger.Warn("ratelimit.expire.failed", "key", key, "error", err)
		return false
	}
	return true
}
