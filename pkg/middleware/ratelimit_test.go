package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/platinummonkey/hrportal/pkg/contextkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_TokenBucket(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute, BurstSize: 1})
	current := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, _ := rl.Allow(ctx, "k")
	assert.False(t, ok)

	// Other keys have their own bucket
	ok, _ = rl.Allow(ctx, "other")
	assert.True(t, ok)

	// Half a window refills one token
	current = current.Add(30 * time.Second)
	ok, _ = rl.Allow(ctx, "k")
	assert.True(t, ok)
	ok, _ = rl.Allow(ctx, "k")
	assert.False(t, ok)

	current = current.Add(5 * time.Minute)
	rl.Cleanup()
	assert.Empty(t, rl.buckets)
}

func TestNewRateLimiter_InvalidConfigUsesDefault(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{})
	assert.Equal(t, DefaultRateLimitConfig(), rl.Config())
}

func TestDistributedRateLimiter(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rl := NewDistributedRateLimiter(client, RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute}, "")

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "client:c1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, "client:c1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("hrportal:ratelimit:client:c1"))

	mr.FastForward(2 * time.Minute)
	ok, _ = rl.Allow(ctx, "client:c1")
	assert.True(t, ok)

	require.NoError(t, rl.Reset(ctx, "client:c1"))
	assert.False(t, mr.Exists("hrportal:ratelimit:client:c1"))

	mr.Close()
	_, err = rl.Allow(ctx, "client:c1")
	assert.Error(t, err)
}

func TestDistributedRateLimiter_RestoresMissingTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rl := NewDistributedRateLimiter(client, RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}, "")

	// A counter left behind without an expiry
	require.NoError(t, mr.Set("hrportal:ratelimit:ip:10.0.0.1", "5"))
	require.Zero(t, mr.TTL("hrportal:ratelimit:ip:10.0.0.1"))

	ok, err := rl.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("hrportal:ratelimit:ip:10.0.0.1"))

	mr.FastForward(2 * time.Minute)
	ok, err = rl.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return false, errors.New("redis down")
}

func (brokenLimiter) Config() RateLimitConfig { return DefaultRateLimitConfig() }

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Hour})
	handler := NewRateLimitMiddleware(rl, nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		return r.WithContext(contextkeys.WithClientID(r.Context(), "c1"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))

	// A different client is unaffected
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware_LimiterErrors(t *testing.T) {
	m := NewRateLimitMiddleware(brokenLimiter{}, nil)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	m.SetFailOpen(false)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.3")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}

func TestRateLimitMiddleware_CookielessCallers(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Hour})
	handler := ClientID("", false)(NewRateLimitMiddleware(rl, nil).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	))

	send := func(token, ip string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = ip + ":40000"
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	// A new client cookie is issued each time but the token still identifies the caller
	assert.Equal(t, http.StatusOK, send("bearer-abc", "10.0.0.1"))
	for i := 0; i < 4; i++ {
		assert.Equal(t, http.StatusTooManyRequests, send("bearer-abc", "10.0.0.2"))
	}

	// Without a token the caller IP is the key
	assert.Equal(t, http.StatusOK, send("", "10.0.0.3"))
	assert.Equal(t, http.StatusTooManyRequests, send("", "10.0.0.3"))
	assert.Equal(t, http.StatusOK, send("", "10.0.0.4"))
}

func TestRateLimitMiddleware_SetKeyFunc(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Hour})
	m := NewRateLimitMiddleware(rl, nil)
	m.SetKeyFunc(func(r *http.Request) string { return "everyone" })
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := map[string]int{}
	for _, addr := range []string{"10.0.0.1:40000", "10.0.0.2:40000"} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		codes[addr] = w.Code
	}
	assert.Equal(t, http.StatusOK, codes["10.0.0.1:40000"])
	assert.Equal(t, http.StatusTooManyRequests, codes["10.0.0.2:40000"])
}
