package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_api/internal/ratelimit"
)

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t, serverOpts{})

	rec := s.doJSON(http.MethodGet, "/api/v1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "API is Live", body["message"])
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, APIVersion, body["version"])
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	assert.Equal(t, http.StatusOK, s.doJSON(http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.doJSON(http.MethodGet, "/health/ready", "", nil).Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, serverOpts{})

	rec := s.doJSON(http.MethodGet, "/api/v2/nothing", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NotFound", decode[errorBody](t, rec).Code)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := newTestServer(t, serverOpts{rateLimiter: ratelimit.NewRedisStore(rdb, 2, time.Minute, nil)})

	for range 2 {
		require.Equal(t, http.StatusOK, s.doJSON(http.MethodGet, "/api/v1", "", nil).Code)
	}
	rec := s.doJSON(http.MethodGet, "/api/v1", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, ratelimit.DeniedMessage, decode[errorBody](t, rec).Message)

	mr.FastForward(time.Minute)
	assert.Equal(t, http.StatusOK, s.doJSON(http.MethodGet, "/api/v1", "", nil).Code)
}

func TestCORS(t *testing.T) {
	preflight := func(s *testServer, origin string) *http.Response {
		return s.do(request{
			method: http.MethodOptions,
			path:   "/api/v1/auth/login",
			header: http.Header{
				echo.HeaderOrigin:                     {origin},
				echo.HeaderAccessControlRequestMethod: {http.MethodPost},
			},
		}).Result()
	}

	dev := newTestServer(t, serverOpts{})
	res := preflight(dev, "https://anywhere.test")
	assert.Equal(t, "https://anywhere.test", res.Header.Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", res.Header.Get(echo.HeaderAccessControlAllowCredentials))

	prod := newTestServer(t, serverOpts{production: true, origins: []string{"https://blog.dev"}})
	assert.Empty(t, preflight(prod, "https://anywhere.test").Header.Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "https://blog.dev", preflight(prod, "https://blog.dev").Header.Get(echo.HeaderAccessControlAllowOrigin))
}
