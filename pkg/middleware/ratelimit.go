package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/platinummonkey/hrportal/pkg/httputil"
	"github.com/sirupsen/logrus"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
	// BurstSize allows temporary bursts above the rate
	BurstSize int
}

// DefaultRateLimitConfig returns per-client limits generous enough for Loading polls
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerWindow: 600,
		WindowDuration:    time.Minute,
		BurstSize:         30,
	}
}

// Limiter decides whether a keyed request may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Config() RateLimitConfig
}

// RateLimiter is an in-memory token bucket limiter
type RateLimiter struct {
	config  RateLimitConfig
	buckets map[string]*bucket
	mu      sync.Mutex
	now     func() time.Time
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.RequestsPerWindow <= 0 || config.WindowDuration <= 0 {
		config = DefaultRateLimitConfig()
	}
	return &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (rl *RateLimiter) capacity() float64 {
	return float64(rl.config.RequestsPerWindow + rl.config.BurstSize)
}

// Allow implements Limiter
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity(), lastUpdate: now}
		rl.buckets[key] = b
	}

	// Refill tokens based on elapsed time
	rate := float64(rl.config.RequestsPerWindow) / rl.config.WindowDuration.Seconds()
	b.tokens += now.Sub(b.lastUpdate).Seconds() * rate
	if b.tokens > rl.capacity() {
		b.tokens = rl.capacity()
	}
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

// Config implements Limiter
func (rl *RateLimiter) Config() RateLimitConfig {
	return rl.config
}

// Cleanup removes buckets idle for two windows
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastUpdate) > rl.config.WindowDuration*2 {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanup runs Cleanup every window until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.config.WindowDuration)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RateLimitMiddleware limits requests per client key
type RateLimitMiddleware struct {
	limiter  Limiter
	logger   logrus.FieldLogger
	failOpen bool
	keyFunc  func(*http.Request) string
}

// NewRateLimitMiddleware creates a middleware that fails open on limiter errors
func NewRateLimitMiddleware(limiter Limiter, logger logrus.FieldLogger) *RateLimitMiddleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RateLimitMiddleware{limiter: limiter, logger: logger, failOpen: true, keyFunc: defaultRateLimitKey}
}

// SetKeyFunc overrides how requests are keyed, e.g. with Gate.ClientKey
func (m *RateLimitMiddleware) SetKeyFunc(fn func(*http.Request) string) {
	if fn != nil {
		m.keyFunc = fn
	}
}

// SetFailOpen controls whether limiter errors allow (true) or reject (false) requests
func (m *RateLimitMiddleware) SetFailOpen(enabled bool) {
	m.failOpen = enabled
}

// Handler wraps an HTTP handler with rate limiting
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.keyFunc(r)

		allowed, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			m.logger.WithError(err).Warn("Rate limiter unavailable")
			if !m.failOpen {
				httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "service temporarily unavailable")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		cfg := m.limiter.Config()
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.RequestsPerWindow))
		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", cfg.WindowDuration.Seconds()))
			httputil.WriteErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// defaultRateLimitKey keys callers without access to the session cookie name
func defaultRateLimitKey(r *http.Request) string {
	return ClientKey(r, httputil.BearerToken(r))
}

func clientIP(r *http.Request) string {
	// First hop of X-Forwarded-For when behind a proxy
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
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
