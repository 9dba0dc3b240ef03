package middleware

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/studentsadda/studentsadda/internal/config"
)

// bodyCapture tees the response body so a successful JSON response can be
// stored after it has been sent to the client.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int
	limit  int
}

func (w *bodyCapture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	if w.size+len(b) <= w.limit {
		w.buf.Write(b)
	} else {
		w.size = w.limit + 1 // mark oversized; drop the partial buffer
		w.buf.Reset()
	}
	w.size += len(b)
	return w.ResponseWriter.Write(b)
}

// ResponseCache caches successful JSON responses of public listing routes
// in Redis.  Only configured methods are cached, keys are derived from
// route and query string, and entries expire after cfg.TTL.  With a nil
// Redis client the middleware is a pass-through.  Cached entries carry an
// X-Cache header so hits are observable.
//
// The key carries no caller identity, so the cache is only mounted on
// public routes; requests presenting credentials are never cached or
// answered from the cache.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if !cfg.Methods[r.Method] || r.Header.Get(echo.HeaderAuthorization) != "" {
				return next(c)
			}
			key := cacheKey(cfg.Prefix, r.Method, c.Path(), r.URL.RawQuery)

			if body, err := rdb.Get(r.Context(), key).Bytes(); err == nil {
				h := c.Response().Header()
				h.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
				h.Set("X-Cache", "HIT")
				c.Response().WriteHeader(http.StatusOK)
				_, werr := c.Response().Write(body)
				return werr
			}

			cw := &bodyCapture{ResponseWriter: c.Response().Writer, limit: cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			// Store only complete 200 bodies that fit under the size cap.
			// A zero TTL would mean "no expiry" to Redis, so guard it.
			if cfg.TTL > 0 && cw.size <= cfg.MaxBodyBytes && cw.buf.Len() > 0 &&
				(cw.status == http.StatusOK || cw.status == 0) {
				_ = rdb.Set(r.Context(), key, cw.buf.Bytes(), cfg.TTL).Err()
			}
			return nil
		}
	}
}

func cacheKey(prefix, method, route, query string) string {
	sum := sha1.Sum([]byte(method + ":" + route + "?" + query))
	return fmt.Sprintf("%s:%x", prefix, sum)
}
