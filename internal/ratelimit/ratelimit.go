// Package ratelimit implements fixed-window per-minute request counters,
// one global and one per method.
//
// The window is floor(unix_seconds / 60). Counters belonging to an older
// window are replaced the first time they are touched in a newer one, so no
// background sweep is needed. A fixed window admits up to 2×limit requests
// across a window boundary; that is the intended, observable behavior.
package ratelimit

import "time"

// GlobalKey is the counter key shared by every method.
const GlobalKey = "global"

const windowSeconds = 60

// Scope identifies which limit rejected a request.
type Scope string

const (
	ScopeNone   Scope = ""
	ScopeGlobal Scope = "global"
	ScopeMethod Scope = "method"
)

// Decision is the outcome of a single Check.
type Decision struct {
	Allowed       bool
	Scope         Scope
	Key           string // counter key that tripped: "global" or "method:<name>"
	RetryAfterSec int
}

// Limits configures the limiter. Zero means unlimited for that scope.
type Limits struct {
	Global    int
	PerMethod map[string]int
}

type counter struct {
	window int64
	count  int
}

// Limiter counts attempts per window. It is not safe for concurrent use; the
// server dispatches one request at a time.
type Limiter struct {
	limits   Limits
	counters map[string]*counter
	now      func() time.Time
}

// New creates a Limiter with the given limits.
func New(limits Limits) *Limiter {
	return &Limiter{
		limits:   limits,
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// MethodKey returns the counter key for a method.
func MethodKey(method string) string {
	return "method:" + method
}

// Check records one attempt for method and reports whether it is allowed.
// The global counter is incremented first; when it trips, the method
// counter is left untouched.
func (l *Limiter) Check(method string) Decision {
	now := l.now().Unix()
	window := now / windowSeconds
	retryAfter := int(windowSeconds - now%windowSeconds)

	if l.incr(GlobalKey, window) > l.limits.Global && l.limits.Global > 0 {
		return Decision{Scope: ScopeGlobal, Key: GlobalKey, RetryAfterSec: retryAfter}
	}

	key := MethodKey(method)
	limit := l.limits.PerMethod[method]
	if l.incr(key, window) > limit && limit > 0 {
		return Decision{Scope: ScopeMethod, Key: key, RetryAfterSec: retryAfter}
	}

	return Decision{Allowed: true}
}

// Count returns the attempts recorded for key in the current window.
func (l *Limiter) Count(key string) int {
	c, ok := l.counters[key]
	if !ok || c.window != l.now().Unix()/windowSeconds {
		return 0
	}
	return c.count
}

func (l *Limiter) incr(key string, window int64) int {
	c, ok := l.counters[key]
	if !ok || c.window != window {
		c = &counter{window: window}
		l.counters[key] = c
	}
	c.count++
	return c.count
}
