package cancel

import (
	"context"
	"testing"
)

func TestRegistry_CancelInFlight(t *testing.T) {
	r := NewRegistry()
	r.Register("req-1")

	if !r.Cancel("req-1") {
		t.Fatal("Cancel of in-flight id should return true")
	}
	if !r.IsCancelled("req-1") {
		t.Error("IsCancelled should be true after Cancel")
	}
}

func TestRegistry_CancelUnknownRecordsFlag(t *testing.T) {
	r := NewRegistry()

	if r.Cancel(9) {
		t.Fatal("Cancel of unknown id should return false")
	}
	if !r.IsCancelled(9) {
		t.Error("pre-emptive cancel should still be recorded")
	}
}

func TestRegistry_RegisterClearsStaleFlag(t *testing.T) {
	r := NewRegistry()
	r.Cancel("x")
	r.Register("x")

	if r.IsCancelled("x") {
		t.Error("Register should clear a stale cancellation flag")
	}
	if !r.InFlight("x") {
		t.Error("Register should mark id in flight")
	}
}

func TestRegistry_CompleteIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Register("x")
	r.Cancel("x")

	r.Complete("x")
	r.Complete("x")

	if r.IsCancelled("x") || r.InFlight("x") {
		t.Error("Complete should drop all bookkeeping")
	}
}

func TestRegistry_NilIDIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Register(nil)
	if r.Cancel(nil) {
		t.Error("Cancel(nil) should be false")
	}
	if r.IsCancelled(nil) {
		t.Error("IsCancelled(nil) should be false")
	}
	r.Complete(nil)
	if len(r.entries) != 0 {
		t.Errorf("nil id should leave no entries, got %d", len(r.entries))
	}
}

func TestKey_NumbersAndStringsShareKeys(t *testing.T) {
	r := NewRegistry()
	r.Register(float64(1))
	if !r.Cancel("1") {
		t.Error(`"1" should address request 1`)
	}
}

func TestRequested_PollsBoundRequest(t *testing.T) {
	r := NewRegistry()
	r.Register("a")
	ctx := WithRequest(context.Background(), r, "a")

	if Requested(ctx) {
		t.Fatal("should not be cancelled yet")
	}
	r.Cancel("a")
	if !Requested(ctx) {
		t.Error("Requested should observe the cancellation")
	}
	if Requested(context.Background()) {
		t.Error("unbound context should never report cancellation")
	}
}
