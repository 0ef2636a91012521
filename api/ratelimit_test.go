package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitscampus/campusbot/internal/log"
)

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1.0, 5)
	for i := range 5 {
		assert.True(t, rl.Allow("1.2.3.4"), "request %d within burst of 5", i+1)
	}
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1.0, 3)
	for range 3 {
		rl.Allow("1.2.3.4")
	}
	assert.False(t, rl.Allow("1.2.3.4"))
}

func TestRateLimiter_SeparateIPs(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1.0, 2)
	rl.Allow("1.1.1.1")
	rl.Allow("1.1.1.1")

	assert.True(t, rl.Allow("2.2.2.2"), "a different IP has its own bucket")
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	t.Parallel()

	// 100 tokens/sec keeps the test quick.
	rl := NewRateLimiter(100.0, 1)
	rl.Allow("1.2.3.4")
	require.False(t, rl.Allow("1.2.3.4"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, rl.Allow("1.2.3.4"), "token refilled after waiting")
}

func TestRateLimitMiddleware_Returns429(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0.001, 1)
	handler := RateLimitMiddleware(rl, false, log.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:12345"
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:12345"
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "Too many requests")
}

func TestServer_RateLimitedChat(t *testing.T) {
	t.Parallel()

	answerer := &fakeAnswerer{answer: "ok"}
	srv := NewServer(ServerConfig{
		Logger:         log.NewNop(),
		Answerer:       answerer,
		RateLimitRPS:   0.001,
		RateLimitBurst: 2,
	})

	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/chat",
			strings.NewReader(`{"message": "hello"}`))
		r.RemoteAddr = "10.0.0.9:5555"
		srv.ServeHTTP(w, r)
		return w
	}

	require.Equal(t, http.StatusOK, post().Code)
	require.Equal(t, http.StatusOK, post().Code)
	assert.Equal(t, http.StatusTooManyRequests, post().Code)
	assert.Equal(t, 2, answerer.callCount, "throttled request never reaches the pipeline")
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		trustProxy bool
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "192.168.1.10:54321",
			want:       "192.168.1.10",
		},
		{
			name:       "proxy headers ignored without trust",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			want:       "10.0.0.1",
		},
		{
			name:       "X-Real-IP trusted",
			trustProxy: true,
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "X-Forwarded-For first hop",
			trustProxy: true,
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"},
			want:       "203.0.113.7",
		},
		{
			name:       "garbage header falls back to RemoteAddr",
			trustProxy: true,
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(r, tt.trustProxy))
		})
	}
}
