package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/blog_api/internal/apierr"
)

const (
	Window           = time.Minute
	keyPrefix        = "rl:"
	redisTimeout     = 200 * time.Millisecond
	DeniedMessage    = "You have sent too many requests in a given amount of time. Please try again later."
	memoryExpiry     = 3 * time.Minute
	defaultPerMinute = 60
)

var ErrRedisUnavailable = errors.New("redis unavailable")

// RedisStore is a fixed-window counter shared by every instance:
// INCR per identifier, with the expiry set on the first hit of a window.
type RedisStore struct {
	rdb    redis.UniversalClient
	limit  int64
	window time.Duration
	log    *slog.Logger
}

func NewRedisStore(rdb redis.UniversalClient, perWindow int, window time.Duration, log *slog.Logger) *RedisStore {
	if perWindow <= 0 {
		perWindow = defaultPerMinute
	}
	if window <= 0 {
		window = Window
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisStore{rdb: rdb, limit: int64(perWindow), window: window, log: log}
}

// Allow fails open when Redis is unreachable.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	count, err := s.incr(ctx, keyPrefix+identifier)
	if err != nil {
		s.log.Warn("rate_limit_store_error", "error", err)
		return true, nil
	}
	return count <= s.limit, nil
}

func (s *RedisStore) incr(ctx context.Context, key string) (int64, error) {
	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count == 1 {
		if err := s.rdb.Expire(ctx, key, s.window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}

// NewMemoryStore is the single-instance fallback: a token bucket per client
// refilled at perMinute requests per minute.
func NewMemoryStore(perMinute int) middleware.RateLimiterStore {
	if perMinute <= 0 {
		perMinute = defaultPerMinute
	}
	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / Window.Seconds()),
		Burst:     perMinute,
		ExpiresIn: memoryExpiry,
	})
}

// Middleware limits requests per client IP.
func Middleware(store middleware.RateLimiterStore) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apierr.Authorization("Unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			c.Response().Header().Set("Retry-After", fmt.Sprint(int(Window.Seconds())))
			return apierr.TooManyRequests(DeniedMessage)
		},
	})
}
