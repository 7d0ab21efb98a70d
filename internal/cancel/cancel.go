// Package cancel tracks in-flight request ids and advisory cancellation
// flags.
//
// Cancellation is cooperative only. Nothing here interrupts a running
// handler; long-running handlers poll Requested(ctx) at safe points.
package cancel

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

type entry struct {
	inFlight  bool
	cancelled bool
}

// Registry is not safe for concurrent use; the server handles one request
// at a time.
type Registry struct {
	entries map[string]*entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Key normalizes a request id. Strings are used as-is and numbers by their
// decimal text, so 1 and "1" address the same request. A nil id has no key.
func Key(id any) (string, bool) {
	switch v := id.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return fmt.Sprint(v), true
	}
}

// Register marks id as in flight and clears any stale cancellation flag.
func (r *Registry) Register(id any) {
	key, ok := Key(id)
	if !ok {
		return
	}
	r.entries[key] = &entry{inFlight: true}
}

// Complete drops all bookkeeping for id. Safe to call repeatedly.
func (r *Registry) Complete(id any) {
	key, ok := Key(id)
	if !ok {
		return
	}
	delete(r.entries, key)
}

// Cancel flags id as cancelled. It returns true only when id is in flight;
// an unknown id still gets a flag so a later poll can see it.
func (r *Registry) Cancel(id any) bool {
	key, ok := Key(id)
	if !ok {
		return false
	}
	e, exists := r.entries[key]
	if !exists {
		r.entries[key] = &entry{cancelled: true}
		return false
	}
	e.cancelled = true
	return e.inFlight
}

// IsCancelled reports whether id carries a cancellation flag.
func (r *Registry) IsCancelled(id any) bool {
	key, ok := Key(id)
	if !ok {
		return false
	}
	e, exists := r.entries[key]
	return exists && e.cancelled
}

// InFlight reports whether id is currently being handled.
func (r *Registry) InFlight(id any) bool {
	key, ok := Key(id)
	if !ok {
		return false
	}
	e, exists := r.entries[key]
	return exists && e.inFlight
}

type ctxKey struct{}

type binding struct {
	reg *Registry
	id  any
}

// WithRequest binds the registry and request id to ctx so handlers can poll
// for cancellation without holding the registry.
func WithRequest(ctx context.Context, reg *Registry, id any) context.Context {
	return context.WithValue(ctx, ctxKey{}, binding{reg: reg, id: id})
}

// Requested reports whether the request bound to ctx has been cancelled.
func Requested(ctx context.Context) bool {
	b, ok := ctx.Value(ctxKey{}).(binding)
	if !ok || b.reg == nil {
		return false
	}
	return b.reg.IsCancelled(b.id)
}
