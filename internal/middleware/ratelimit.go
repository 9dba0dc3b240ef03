package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/studentsadda/studentsadda/internal/config"
	"github.com/studentsadda/studentsadda/internal/respond"
)

// tokenBucketScript implements a shared token bucket in Redis.  State per
// key is a hash of {tokens, last_refill_ms}; refills happen lazily on each
// request.  The script returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		local until_next = interval_ms - (now_ms - last_refill)
		if until_next < 0 then until_next = 0 end
		retry_after_ms = until_next
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// RateLimit returns a token-bucket limiter backed by Redis.  When Redis is
// unavailable (nil client or script error) a per-process x/time limiter
// keyed by client IP takes over, so a Redis outage degrades to local
// limiting instead of no limiting.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	local := newLocalLimiter(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rdb == nil {
				return local.allow(c, next)
			}
			key := rateKey(cfg, c)
			args := []interface{}{
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL / time.Second),
			}
			vals, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
			if err != nil {
				return local.allow(c, next)
			}
			arr, ok := vals.([]interface{})
			if !ok || len(arr) != 3 {
				return local.allow(c, next)
			}
			allowed := asInt64(arr[0]) == 1
			remaining := asInt64(arr[1])
			retryMs := asInt64(arr[2])

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if !allowed {
				secs := int(math.Ceil(float64(retryMs) / 1000.0))
				h.Set("Retry-After", strconv.Itoa(secs))
				return respond.Fail(c, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
			}
			return next(c)
		}
	}
}

// rateKey builds the bucket key from the configured strategy.  "ip_route"
// buckets per client IP and route; "ip" buckets per client IP only.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	switch cfg.KeyStrategy {
	case "ip":
		return cfg.Prefix + ":" + c.RealIP()
	default: // "ip_route"
		return cfg.Prefix + ":" + c.RealIP() + ":" + c.Path()
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

// localLimiter is the in-process fallback, one rate.Limiter per client IP.
type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	burst    int
}

func newLocalLimiter(cfg config.RateLimitConfig) *localLimiter {
	perSec := float64(cfg.RefillTokens) / cfg.RefillInterval.Seconds()
	return &localLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        rate.Limit(perSec),
		burst:    cfg.Capacity,
	}
}

func (l *localLimiter) allow(c echo.Context, next echo.HandlerFunc) error {
	ip := c.RealIP()
	l.mu.Lock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.r, l.burst)
		l.limiters[ip] = lim
	}
	l.mu.Unlock()
	if !lim.Allow() {
		return respond.Fail(c, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
	}
	return next(c)
}
