package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentsadda/studentsadda/internal/config"
)

func newCacheMiddleware(t *testing.T) echo.MiddlewareFunc {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return ResponseCache(config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          30 * time.Second,
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}, rdb)
}

func TestResponseCacheServesHit(t *testing.T) {
	e := echo.New()
	calls := 0
	e.GET("/v1/libraries", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": calls})
	}, newCacheMiddleware(t))

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/v1/libraries", nil))
	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/v1/libraries", nil))

	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestResponseCacheSkipsCredentialedRequests(t *testing.T) {
	e := echo.New()
	calls := 0
	e.GET("/v1/libraries", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"data": calls})
	}, newCacheMiddleware(t))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/libraries", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer token")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEqual(t, "HIT", rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}

// Even mounted globally, the cache must never hand an authenticated
// response to a caller without credentials.
func TestResponseCacheNeverReplaysProtectedResponses(t *testing.T) {
	e := echo.New()
	e.Use(newCacheMiddleware(t))

	requireToken := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Unauthorized"})
			}
			return next(c)
		}
	}
	g := e.Group("/v1", requireToken)
	g.GET("/bookings/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": "member bookings"})
	})

	authed := httptest.NewRequest(http.MethodGet, "/v1/bookings/me", nil)
	authed.Header.Set(echo.HeaderAuthorization, "Bearer token")
	first := httptest.NewRecorder()
	e.ServeHTTP(first, authed)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/v1/bookings/me", nil))
	assert.Equal(t, http.StatusUnauthorized, second.Code)
	assert.NotContains(t, second.Body.String(), "member bookings")
}
