package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"ems/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*rateLimiter)

type rateLimiter struct {
	instance *limiter.Limiter
	keyFn    RateLimitKeyFunc
}

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(rl *rateLimiter) {
		if fn != nil {
			rl.keyFn = fn
		}
	}
}

// WithStore swaps the in-memory store, e.g. for a shared backend.
func WithStore(store limiter.Store) RateLimitOption {
	return func(rl *rateLimiter) {
		if store != nil {
			rl.instance = limiter.New(store, rl.instance.Rate)
		}
	}
}

// RateLimit allows limit requests per window and key. The key is the
// caller's email when authenticated, otherwise the client IP.
func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	rl := &rateLimiter{
		instance: limiter.New(memory.NewStore(), limiter.Rate{Period: window, Limit: int64(limit)}),
		keyFn:    actorOrIPKey,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && !rl.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorOrIPKey(r *http.Request) string {
	if id, ok := GetIdentity(r.Context()); ok && id.Email != "" {
		return "user:" + strings.ToLower(id.Email)
	}
	return "ip:" + ClientIP(r)
}

// ClientIP prefers the first X-Forwarded-For hop over the socket address.
func ClientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if value := strings.TrimSpace(strings.Split(fwd, ",")[0]); value != "" {
			return value
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func (rl *rateLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	key := rl.keyFn(r)
	if key == "" {
		key = "ip:" + ClientIP(r)
	}

	state, err := rl.instance.Get(r.Context(), key)
	if err != nil {
		// Fail open; the store is in-process and errors only on a cancelled context.
		slog.Warn("rate limiter unavailable", "err", err)
		return true
	}

	resetIn := max(int(time.Until(time.Unix(state.Reset, 0)).Seconds()), 0)
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(state.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(state.Remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetIn))

	if state.Reached {
		w.Header().Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
		slog.Warn("rate limit exceeded",
			"key", key,
			"path", r.URL.Path,
			"method", r.Method,
			"limit", state.Limit,
		)
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
		return false
	}
	return true
}
