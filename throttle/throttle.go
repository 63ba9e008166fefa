// Package throttle provides the per-caller rate limits for the catalog API:
// a sliding-window counter for scoped limits (artist creation) and a
// token-bucket limiter for the system-wide default.
package throttle

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Window allows at most limit events per key inside a sliding window.
// The limit+1'th attempt inside the window is rejected regardless of spacing.
type Window struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	history map[string][]time.Time
	now     func() time.Time
}

func NewWindow(limit int, window time.Duration) *Window {
	return &Window{
		limit:   limit,
		window:  window,
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit. Rejected attempts are not recorded.
func (w *Window) Allow(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.window)

	timestamps := w.history[key]
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= w.limit {
		w.history[key] = kept
		return false
	}
	w.history[key] = append(kept, now)
	return true
}

// Limiter applies a per-key token bucket for the system-wide default rate.
type Limiter struct {
	mu        sync.Mutex
	perSecond rate.Limit
	burst     int
	limiters  map[string]*rate.Limiter
}

func NewLimiter(perSecond int) *Limiter {
	return &Limiter{
		perSecond: rate.Limit(perSecond),
		burst:     perSecond,
		limiters:  make(map[string]*rate.Limiter),
	}
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.perSecond, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
