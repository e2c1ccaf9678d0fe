package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/CoconutOil2004/project-sdn-group302/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig configures the rate limiter
type RateLimitConfig struct {
	Requests  int
	Window    time.Duration
	KeyPrefix string
	Message   string
}

// DefaultWriteRateLimitConfig returns the limits applied to message-creating endpoints
func DefaultWriteRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests:  30,
		Window:    time.Minute,
		KeyPrefix: "messaging:ratelimit:write:",
		Message:   "Bạn gửi tin nhắn quá nhanh. Vui lòng thử lại sau.",
	}
}

// rateLimitScript is an atomic Lua script for sliding window rate limiting
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local window_start = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
    redis.call('PEXPIRE', key, window + 1000)
    return {1, limit - count - 1, 0}
else
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local reset_at = 0
    if #oldest >= 2 then
        reset_at = tonumber(oldest[2]) + window
    end
    return {0, 0, reset_at}
end
`)

// WriteRateLimit limits requests per authenticated principal, falling back to
// the client IP. A nil client disables limiting. Redis errors fail open.
func WriteRateLimit(redisClient *redis.Client, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		defaults := DefaultWriteRateLimitConfig()
		cfg.Requests, cfg.Window = defaults.Requests, defaults.Window
	}

	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		key := cfg.KeyPrefix + rateLimitSubject(c)
		now := time.Now().UnixMilli()
		windowMs := cfg.Window.Milliseconds()

		result, err := rateLimitScript.Run(c.Request.Context(), redisClient, []string{key},
			cfg.Requests, windowMs, now,
		).Int64Slice()
		if err != nil || len(result) < 3 {
			c.Next()
			return
		}

		allowed := result[0] == 1
		remaining := result[1]
		resetAt := result[2]

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			c.Header("Retry-After", strconv.FormatInt(retryAfterSeconds(resetAt, now), 10))
			common.V2ErrorResponse(c, http.StatusTooManyRequests, cfg.Message, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

func rateLimitSubject(c *gin.Context) string {
	if p, ok := GetPrincipal(c); ok {
		return "user:" + strconv.FormatUint(p.ID, 10)
	}
	return "ip:" + c.ClientIP()
}

// retryAfterSeconds rounds the wait up to whole seconds, minimum 1
func retryAfterSeconds(resetAtMs, nowMs int64) int64 {
	wait := (resetAtMs - nowMs + 999) / 1000
	if wait < 1 {
		return 1
	}
	return wait
}
