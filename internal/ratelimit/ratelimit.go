// Package ratelimit admits or rejects requests per client key using a
// sliding window, with an optional process-wide throttle in front.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for the per-key governor.
const (
	DefaultLimit  = 30
	DefaultWindow = 60 * time.Second
)

// Result describes one admission decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter int // seconds; 0 when allowed
}

// Governor is a sliding-window admission controller keyed by client
// identity (typically network origin). Safe for concurrent use.
type Governor struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow

	limit  int
	window time.Duration
	now    func() time.Time
}

// slidingWindow holds the admission timestamps for one key.
type slidingWindow struct {
	timestamps []time.Time
}

func (sw *slidingWindow) dropExpired(cutoff time.Time) {
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// Option configures a Governor.
type Option func(*Governor)

// WithClock overrides the time source. Used by tests to advance the window.
func WithClock(now func() time.Time) Option {
	return func(g *Governor) {
		g.now = now
	}
}

// NewGovernor creates a governor admitting at most limit requests per key
// within the window.
func NewGovernor(limit int, window time.Duration, opts ...Option) *Governor {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	g := &Governor{
		windows: make(map[string]*slidingWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allow checks and records one admission for the key. The check and the
// record happen under one lock, so concurrent callers for the same key can
// never admit past the limit.
func (g *Governor) Allow(key string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	sw, ok := g.windows[key]
	if !ok {
		sw = &slidingWindow{}
		g.windows[key] = sw
	}
	sw.dropExpired(now.Add(-g.window))

	if len(sw.timestamps) >= g.limit {
		retry := int(sw.timestamps[0].Add(g.window).Sub(now).Seconds())
		if retry < 1 {
			retry = 1
		}
		return Result{Allowed: false, Limit: g.limit, Remaining: 0, RetryAfter: retry}
	}

	sw.timestamps = append(sw.timestamps, now)
	return Result{Allowed: true, Limit: g.limit, Remaining: g.limit - len(sw.timestamps)}
}

// Prune drops keys whose whole window has expired. Called periodically so
// one-off clients do not grow the map forever.
func (g *Governor) Prune() {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.now().Add(-g.window)
	for key, sw := range g.windows {
		sw.dropExpired(cutoff)
		if len(sw.timestamps) == 0 {
			delete(g.windows, key)
		}
	}
}

// GlobalThrottle is a process-wide token bucket applied before the per-key
// governor. It bounds aggregate load during bulk abuse when attackers rotate
// client keys.
type GlobalThrottle struct {
	limiter *rate.Limiter
}

// NewGlobalThrottle creates a throttle admitting perSec requests steadily
// with the given burst.
func NewGlobalThrottle(perSec float64, burst int) *GlobalThrottle {
	if perSec <= 0 {
		perSec = 100
	}
	if burst <= 0 {
		burst = int(perSec) * 2
	}
	return &GlobalThrottle{limiter: rate.NewLimiter(rate.Limit(perSec), burst)}
}

// Allow reports whether one more request fits the aggregate budget.
func (t *GlobalThrottle) Allow() bool {
	return t.limiter.Allow()
}
