package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/vanshika/creditbridge/backend/internal/apperr"
	"github.com/vanshika/creditbridge/backend/internal/auth"
	"github.com/vanshika/creditbridge/backend/internal/logging"
)

type callerLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

// CallerRateLimiter keeps one token bucket per authenticated caller, falling
// back to the client address for anonymous requests. Buckets idle for longer
// than the sweep window are dropped by Sweep.
type CallerRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	logger   *slog.Logger
	nowFn    func() time.Time
}

// NewCallerRateLimiter allows perMinute requests per caller with the given
// burst. A non-positive perMinute disables limiting.
func NewCallerRateLimiter(perMinute, burst int, logger *slog.Logger) *CallerRateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst <= 0 {
		burst = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CallerRateLimiter{rate: limit, burst: burst, logger: logger, nowFn: time.Now}
}

// WithClock overrides the clock used to track caller activity.
func (l *CallerRateLimiter) WithClock(now func() time.Time) *CallerRateLimiter {
	if now != nil {
		l.nowFn = now
	}
	return l
}

func (l *CallerRateLimiter) limiter(key string) *rate.Limiter {
	entry, ok := l.limiters.Load(key)
	if !ok {
		entry, _ = l.limiters.LoadOrStore(key, &callerLimiter{limiter: rate.NewLimiter(l.rate, l.burst)})
	}
	cl := entry.(*callerLimiter)
	cl.lastSeen.Store(l.nowFn().UnixNano())
	return cl.limiter
}

// Sweep drops buckets whose caller has not been seen for idle and returns how
// many were removed.
func (l *CallerRateLimiter) Sweep(idle time.Duration) int {
	cutoff := l.nowFn().Add(-idle).UnixNano()
	removed := 0
	l.limiters.Range(func(key, value any) bool {
		if value.(*callerLimiter).lastSeen.Load() < cutoff {
			l.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Run sweeps idle buckets every interval until ctx is done.
func (l *CallerRateLimiter) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(idle); n > 0 {
				l.logger.Debug("evicted idle rate limiters", "count", n)
			}
		}
	}
}

// Middleware rejects requests over the caller's budget with 429.
func (l *CallerRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := auth.UserID(r.Context())
		if key == "" {
			key = r.RemoteAddr
		}
		if !l.limiter(key).Allow() {
			log := logging.FromContext(r.Context(), l.logger)
			log.Warn("rate limit exceeded", "path", r.URL.Path)
			writeAppError(log, w, apperr.New(apperr.KindTooManyRequests, "rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
