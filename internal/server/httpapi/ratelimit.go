package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	limiterKeyPrefix = "habitkeeper:ratelimit:"
	limiterTimeout   = 500 * time.Millisecond
	maxPeekBody      = 64 << 10
)

// tokenBucketScript refills and takes one token atomically.
// KEYS[1] bucket key, ARGV[1] tokens per second, ARGV[2] capacity,
// ARGV[3] now in seconds.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if not tokens or not ts then
    tokens = capacity
    ts = now
end

local elapsed = now - ts
if elapsed > 0 then
    tokens = math.min(capacity, tokens + elapsed * rate)
    ts = now
end

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "ts", ts)
redis.call("EXPIRE", key, math.ceil(capacity / rate) + 1)
return allowed
`)

// RedisLimiterStore is a token bucket per identifier kept in Redis, so the
// limit holds across server instances. When Redis cannot be reached the
// in-memory fallback decides.
type RedisLimiterStore struct {
	client     redis.Scripter
	perSecond  float64
	capacity   int
	timeoutDur time.Duration
	fallback   middleware.RateLimiterStore
	onError    func(error)
}

// NewRedisLimiterStore allows perMinute requests per identifier with bursts
// up to burst.
func NewRedisLimiterStore(client redis.Scripter, perMinute, burst int) *RedisLimiterStore {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RedisLimiterStore{
		client:     client,
		perSecond:  float64(perMinute) / 60,
		capacity:   burst,
		timeoutDur: limiterTimeout,
		fallback:   NewMemoryLimiterStore(perMinute, burst),
		onError:    func(error) {},
	}
}

// OnError registers a callback for Redis failures, typically a logger.
func (s *RedisLimiterStore) OnError(fn func(error)) {
	s.onError = fn
}

func (s *RedisLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeoutDur)
	defer cancel()

	now := float64(time.Now().UnixMicro()) / 1e6
	allowed, err := tokenBucketScript.Run(ctx, s.client, []string{limiterKeyPrefix + identifier},
		s.perSecond, s.capacity, now).Int()
	if err != nil {
		s.onError(fmt.Errorf("redis limiter error: %w", err))
		return s.fallback.Allow(identifier)
	}
	return allowed == 1, nil
}

// NewMemoryLimiterStore is the single-instance fallback used without Redis.
func NewMemoryLimiterStore(perMinute, burst int) middleware.RateLimiterStore {
	if perMinute <= 0 {
		perMinute = 1
	}
	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
}

// rateLimit limits credential endpoints per client IP and submitted email.
func (s *Server) rateLimit() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store:               s.limiter,
		IdentifierExtractor: loginIdentifier,
		ErrorHandler: func(c echo.Context, err error) error {
			return apperr.Validation("Invalid request body", nil)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			if err != nil {
				s.logger.Warn(c.Request().Context(), "rate limiter error", "error", err)
			}
			return apperr.New(apperr.CodeTooManyRequests, "Too many attempts, please try again later")
		},
	})
}

// loginIdentifier reads the email from the JSON body without consuming it.
// Only the first maxPeekBody bytes are parsed; the handler still sees the
// whole body.
func loginIdentifier(c echo.Context) (string, error) {
	req := c.Request()
	ip := c.RealIP()
	if req.Body == nil {
		return ip, nil
	}

	raw, err := io.ReadAll(io.LimitReader(req.Body, maxPeekBody))
	if err != nil {
		return "", err
	}
	req.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), req.Body))

	var body struct {
		Email string `json:"email"`
	}
	_ = json.Unmarshal(raw, &body)
	return ip + "|" + strings.ToLower(strings.TrimSpace(body.Email)), nil
}
