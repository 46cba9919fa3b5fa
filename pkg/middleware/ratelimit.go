package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/garage/pkg/httputil"
	"github.com/platinummonkey/garage/pkg/observability"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int `yaml:"requests_per_window"`
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration `yaml:"window"`
}

// DefaultRateLimitConfig returns limits for anonymous callers
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerWindow: 100, WindowDuration: time.Minute}
}

// PerIdentityRateLimitConfig returns limits for signed-in callers
func PerIdentityRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerWindow: 1000, WindowDuration: time.Minute}
}

// RateLimiter is a fixed-window counter kept in Redis, so that limits are
// shared across instances
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	prefix string
}

// NewRateLimiter creates a new Redis-backed rate limiter
func NewRateLimiter(client *redis.Client, config RateLimitConfig, prefix string) *RateLimiter {
	if config.RequestsPerWindow <= 0 || config.WindowDuration <= 0 {
		config = DefaultRateLimitConfig()
	}
	if prefix == "" {
		prefix = "garage:ratelimit"
	}
	return &RateLimiter{redis: client, config: config, prefix: prefix}
}

func (rl *RateLimiter) key(k string) string {
	return rl.prefix + ":" + k
}

// Allow counts a request for key and reports whether it is within the limit
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	redisKey := rl.key(key)

	n, err := rl.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, rl.config.RequestsPerWindow, fmt.Errorf("failed to count request: %w", err)
	}
	// The first request of a window starts its clock
	if n == 1 {
		if err := rl.redis.Expire(ctx, redisKey, rl.config.WindowDuration).Err(); err != nil {
			return true, rl.config.RequestsPerWindow, fmt.Errorf("failed to start window: %w", err)
		}
	}

	count := int(n)
	remaining := rl.config.RequestsPerWindow - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rl.config.RequestsPerWindow, remaining, nil
}

// TTL returns the time until the window of key resets
func (rl *RateLimiter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return rl.redis.TTL(ctx, rl.key(key)).Result()
}

// Reset clears the counter of key
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, rl.key(key)).Err()
}

// RateLimitMiddleware limits requests per identity, or per client address
// for anonymous callers. Redis failures let the request through.
type RateLimitMiddleware struct {
	identities *RateLimiter
	anonymous  *RateLimiter
	logger     *observability.Logger
}

// NewRateLimitMiddleware creates the middleware with one limiter per caller kind
func NewRateLimitMiddleware(client *redis.Client, perIdentity, anonymous RateLimitConfig, logger *observability.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		identities: NewRateLimiter(client, perIdentity, "garage:ratelimit:identity"),
		anonymous:  NewRateLimiter(client, anonymous, "garage:ratelimit:anon"),
		logger:     logger,
	}
}

// Handler wraps an HTTP handler with rate limiting. It must run after
// IdentityMiddleware to tell callers apart.
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limiter, key := m.anonymous, "ip:"+clientIP(r)
		if id := CurrentIdentity(r); id != nil {
			limiter, key = m.identities, "id:"+id.ID
		}

		allowed, remaining, err := limiter.Allow(ctx, key)
		if err != nil {
			m.logger.WithContext(ctx).WithError(err).Warn("Rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.config.RequestsPerWindow))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		ttl, err := limiter.TTL(ctx, key)
		if err != nil || ttl <= 0 {
			ttl = limiter.config.WindowDuration
		}
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Round(time.Second).Seconds())))
			httputil.WriteErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the first address of X-Forwarded-For, then X-Real-IP,
// then the connection's remote host
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
