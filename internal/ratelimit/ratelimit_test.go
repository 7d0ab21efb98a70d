package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(limits Limits, start time.Time) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: start}
	l := New(limits)
	l.now = clock.now
	return l, clock
}

// 12:00:10 UTC, ten seconds into a window.
var windowStart = time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)

func TestCheck_MethodLimitTripsOnNPlusOne(t *testing.T) {
	l, _ := newTestLimiter(Limits{PerMethod: map[string]int{"tool": 3}}, windowStart)

	for i := 1; i <= 3; i++ {
		if d := l.Check("tool"); !d.Allowed {
			t.Fatalf("call %d should be allowed, got %+v", i, d)
		}
	}
	d := l.Check("tool")
	if d.Allowed {
		t.Fatal("4th call should be rejected")
	}
	if d.Scope != ScopeMethod || d.Key != "method:tool" {
		t.Errorf("decision = %+v, want method scope", d)
	}
	if d.RetryAfterSec != 50 {
		t.Errorf("RetryAfterSec = %d, want 50", d.RetryAfterSec)
	}
}

func TestCheck_NextWindowResets(t *testing.T) {
	l, clock := newTestLimiter(Limits{PerMethod: map[string]int{"tool": 2}}, windowStart)

	l.Check("tool")
	l.Check("tool")
	if d := l.Check("tool"); d.Allowed {
		t.Fatal("3rd call in window should be rejected")
	}

	clock.t = windowStart.Add(time.Minute)
	if d := l.Check("tool"); !d.Allowed {
		t.Fatalf("first call of next window should be allowed, got %+v", d)
	}
	if got := l.Count("method:tool"); got != 1 {
		t.Errorf("Count after window advance = %d, want 1", got)
	}
}

func TestCheck_GlobalLimitAcrossMethods(t *testing.T) {
	l, _ := newTestLimiter(Limits{Global: 2}, windowStart)

	if !l.Check("a").Allowed || !l.Check("b").Allowed {
		t.Fatal("first two calls should pass")
	}
	d := l.Check("c")
	if d.Allowed || d.Scope != ScopeGlobal || d.Key != GlobalKey {
		t.Errorf("decision = %+v, want global rejection", d)
	}
	if got := l.Count(MethodKey("c")); got != 0 {
		t.Errorf("method counter should not move when global trips, got %d", got)
	}
}

func TestCheck_CountsIncludeRejectedAttempts(t *testing.T) {
	l, _ := newTestLimiter(Limits{Global: 1}, windowStart)

	for i := 0; i < 4; i++ {
		l.Check("x")
	}
	if got := l.Count(GlobalKey); got != 4 {
		t.Errorf("global count = %d, want 4", got)
	}
}

func TestCheck_ZeroMeansUnlimited(t *testing.T) {
	l, _ := newTestLimiter(Limits{Global: 0, PerMethod: map[string]int{"x": 0}}, windowStart)
	for i := 0; i < 1000; i++ {
		if !l.Check("x").Allowed {
			t.Fatalf("call %d rejected with unlimited config", i)
		}
	}
}

func TestCheck_BoundaryBurstIsAllowed(t *testing.T) {
	end := time.Date(2026, 3, 1, 12, 0, 59, 0, time.UTC)
	l, clock := newTestLimiter(Limits{PerMethod: map[string]int{"x": 3}}, end)

	allowed := 0
	for i := 0; i < 3; i++ {
		if l.Check("x").Allowed {
			allowed++
		}
	}
	clock.t = end.Add(time.Second)
	for i := 0; i < 3; i++ {
		if l.Check("x").Allowed {
			allowed++
		}
	}
	if allowed != 6 {
		t.Errorf("allowed across boundary = %d, want 6", allowed)
	}
}
