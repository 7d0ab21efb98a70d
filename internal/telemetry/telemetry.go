// Package telemetry records dispatch events such as cache hits and handler
// executions.
//
// Sink is the abstraction the dispatcher depends on. Store persists events
// in SQLite; Nop discards them when telemetry is turned off.
package telemetry

// Event names emitted by the dispatch core.
const (
	EventCacheHit     = "cache_hit"
	EventToolExecuted = "tool_executed"
)

// Sink receives telemetry events.
type Sink interface {
	Emit(name string, fields map[string]any) error
}

// Nop is a Sink that drops every event.
type Nop struct{}

// Emit discards the event.
func (Nop) Emit(string, map[string]any) error { return nil }
