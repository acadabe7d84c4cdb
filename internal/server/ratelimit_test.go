package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/creditbridge/backend/internal/logging"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func countLimiters(l *CallerRateLimiter) int {
	n := 0
	l.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestCallerRateLimiterSweepDropsIdleCallers(t *testing.T) {
	clock := &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewCallerRateLimiter(1, 1, logging.Discard()).WithClock(clock.Now)

	require.True(t, l.limiter("idle").Allow())
	clock.Advance(9 * time.Minute)
	require.True(t, l.limiter("active").Allow())
	clock.Advance(2 * time.Minute)

	assert.Equal(t, 1, l.Sweep(10*time.Minute))
	assert.Equal(t, 1, countLimiters(l))
	_, kept := l.limiters.Load("active")
	assert.True(t, kept)

	assert.False(t, l.limiter("active").Allow(), "surviving bucket keeps its state")
	assert.True(t, l.limiter("idle").Allow(), "evicted caller starts with a fresh bucket")
}

func TestCallerRateLimiterRunStopsWithContext(t *testing.T) {
	l := NewCallerRateLimiter(60, 1, logging.Discard())
	l.limiter("caller")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx, time.Millisecond, 0)
		close(done)
	}()

	assert.Eventually(t, func() bool { return countLimiters(l) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestCallerRateLimiterMiddlewareKeysByAddress(t *testing.T) {
	l := NewCallerRateLimiter(1, 1, logging.Discard())
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/score/calculate", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:1234"))
}
