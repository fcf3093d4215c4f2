package handlers

import (
	"strings"
	"sync"
	"time"
)

type rateLimiter interface {
	Allow(key string) bool
}

// fixedWindowLimiter counts requests per caller inside a fixed window. A
// register submitting more checkouts than the limit within one window is
// rejected until the window rolls over. State lives in process; each API
// instance enforces its own budget.
type fixedWindowLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu      sync.Mutex
	windows map[string]limiterWindow
}

type limiterWindow struct {
	count    int
	rollover time.Time
}

func newSimpleRateLimiter(limit int, window time.Duration, clock func() time.Time) rateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &fixedWindowLimiter{
		limit:   limit,
		window:  window,
		clock:   clock,
		windows: make(map[string]limiterWindow),
	}
}

func (l *fixedWindowLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}

	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.rollover) {
		l.windows[key] = limiterWindow{count: 1, rollover: now.Add(l.window)}
		l.dropStaleLocked(now)
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	l.windows[key] = w
	return true
}

// dropStaleLocked evicts rolled-over windows so idle registers do not pin
// map entries forever. Runs only on the new-window path.
func (l *fixedWindowLimiter) dropStaleLocked(now time.Time) {
	for key, w := range l.windows {
		if now.After(w.rollover) {
			delete(l.windows, key)
		}
	}
}
