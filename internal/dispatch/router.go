// Package dispatch holds the handler registry and runs the per-request
// pipeline: rate check, existence, state gate, input validation, cache
// read, execution, output validation, cache write and telemetry.
//
// A Router is owned by one server and is not safe for concurrent use.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/HendryAvila/conductor/internal/cache"
	"github.com/HendryAvila/conductor/internal/envelope"
	"github.com/HendryAvila/conductor/internal/logging"
	cmetrics "github.com/HendryAvila/conductor/internal/metrics"
	"github.com/HendryAvila/conductor/internal/ratelimit"
	"github.com/HendryAvila/conductor/internal/schema"
	"github.com/HendryAvila/conductor/internal/telemetry"
)

// ErrInvalidDescriptor is returned by Register for a descriptor without a
// name or handler.
var ErrInvalidDescriptor = errors.New("invalid handler descriptor")

const (
	maxSuggestions      = 3
	suggestionThreshold = 0.6
)

// StateReader reports the current workflow state for the state gate.
type StateReader interface {
	CurrentState() (string, error)
}

// Options wires the Router's collaborators. Nil fields disable the
// corresponding step.
type Options struct {
	Limiter   *ratelimit.Limiter
	Cache     *cache.Cache
	States    StateReader
	Telemetry telemetry.Sink
	Metrics   *cmetrics.Metrics
	Logger    *slog.Logger
}

// Outcome is the result of one dispatch. Exactly one of Result and Error
// is meaningful. A structured {error:{...}} handler result is returned in
// Result unchanged.
type Outcome struct {
	Result   any
	Error    *envelope.ErrorDetail
	CacheHit bool
}

// Router maps method names to handlers.
type Router struct {
	handlers  map[string]Descriptor
	limiter   *ratelimit.Limiter
	cache     *cache.Cache
	states    StateReader
	telemetry telemetry.Sink
	metrics   *cmetrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
	similar   *metrics.Levenshtein
}

// New creates an empty Router.
func New(opts Options) *Router {
	sink := opts.Telemetry
	if sink == nil {
		sink = telemetry.Nop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Router{
		handlers:  make(map[string]Descriptor),
		limiter:   opts.Limiter,
		cache:     opts.Cache,
		states:    opts.States,
		telemetry: sink,
		metrics:   opts.Metrics,
		logger:    logger,
		now:       time.Now,
		similar:   metrics.NewLevenshtein(),
	}
}

// Register adds d to the registry. An explicitly registered descriptor
// replaces a discovered one and a later explicit registration replaces an
// earlier one. A discovered descriptor is only stored when the name is
// free.
func (r *Router) Register(d Descriptor) error {
	if d.Name == "" || d.Handler == nil {
		return fmt.Errorf("%w: %q", ErrInvalidDescriptor, d.Name)
	}
	if existing, ok := r.handlers[d.Name]; ok && d.Discovered {
		r.logger.Debug("dispatch.register_skipped",
			"name", d.Name,
			"existing_discovered", existing.Discovered,
		)
		return nil
	}
	r.handlers[d.Name] = d
	return nil
}

// Lookup returns the descriptor registered under name.
func (r *Router) Lookup(name string) (Descriptor, bool) {
	d, ok := r.handlers[name]
	return d, ok
}

// Handlers lists every registered handler sorted by name.
func (r *Router) Handlers() []Info {
	out := make([]Info, 0, len(r.handlers))
	for _, d := range r.handlers {
		out = append(out, d.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dispatch runs the pipeline for one request.
func (r *Router) Dispatch(ctx context.Context, method string, params map[string]any) Outcome {
	if params == nil {
		params = map[string]any{}
	}

	// --- Rate limit ---
	if r.limiter != nil {
		if dec := r.limiter.Check(method); !dec.Allowed {
			code := envelope.CodeMethodRateLimit
			if dec.Scope == ratelimit.ScopeGlobal {
				code = envelope.CodeGlobalRateLimit
			}
			return r.fail(method, cmetrics.OutcomeRateLimited, code, "Rate limit exceeded", map[string]any{
				"scope":         dec.Key,
				"retryAfterSec": dec.RetryAfterSec,
			})
		}
	}

	// --- Existence ---
	d, ok := r.handlers[method]
	if !ok {
		var details any
		if s := r.suggest(method); len(s) > 0 {
			details = map[string]any{"suggestions": s}
		}
		return r.fail(method, cmetrics.OutcomeNotFound, envelope.CodeMethodNotFound, "Method not found: "+method, details)
	}

	// --- State gate ---
	if len(d.AllowedStates) > 0 && r.states != nil {
		state, err := r.states.CurrentState()
		if err != nil {
			r.logger.Warn("dispatch.state_unavailable", "method", method, "error", err)
		} else if !slices.Contains(d.AllowedStates, state) {
			return r.fail(method, cmetrics.OutcomeForbidden, envelope.CodeStateForbidden,
				"Tool not allowed in current state: "+state,
				map[string]any{"state": state, "allowedStates": d.AllowedStates})
		}
	}

	// --- Input validation ---
	if errs := schema.Validate(params, d.InputSchema); len(errs) > 0 {
		return r.fail(method, cmetrics.OutcomeInvalid, envelope.CodeInputInvalid,
			"Input validation failed", map[string]any{"errors": errs})
	}

	// --- Cache read ---
	var key string
	if r.cache != nil {
		key = cache.Key(method, params)
		if value, hit := r.cache.Get(method, key); hit {
			r.emit(telemetry.EventCacheHit, map[string]any{"method": method})
			r.metrics.ObserveDispatch(method, cmetrics.OutcomeCacheHit)
			return Outcome{Result: value, CacheHit: true}
		}
	}

	// --- Execute ---
	start := r.now()
	result, err := r.execute(ctx, d, params)
	elapsed := r.now().Sub(start).Milliseconds()
	if err != nil {
		r.logger.Error("dispatch.handler_failed", "method", method, "error", err)
		return r.fail(method, cmetrics.OutcomeFailed, envelope.CodeInternal,
			"Internal server error during tool execution: "+err.Error(), nil)
	}

	normalized, err := normalize(result)
	if err != nil {
		r.logger.Error("dispatch.result_unencodable", "method", method, "error", err)
		return r.fail(method, cmetrics.OutcomeFailed, envelope.CodeInternal,
			"Internal server error during tool execution: "+err.Error(), nil)
	}

	if _, isErr := envelope.FromResult(normalized); isErr {
		r.metrics.ObserveDispatch(method, cmetrics.OutcomeHandlerErr)
		r.emit(telemetry.EventToolExecuted, map[string]any{"method": method, "durationMs": elapsed})
		return Outcome{Result: normalized}
	}

	// --- Output validation ---
	if errs := schema.Validate(normalized, d.OutputSchema); len(errs) > 0 {
		r.logger.Warn("dispatch.output_invalid", "method", method, "errors", len(errs))
		return r.fail(method, cmetrics.OutcomeBadOutput, envelope.CodeOutputInvalid,
			"Output validation failed", map[string]any{"errors": errs})
	}

	// --- Cache write ---
	if r.cache != nil {
		r.cache.Put(method, key, normalized)
	}

	// --- Telemetry ---
	r.emit(telemetry.EventToolExecuted, map[string]any{"method": method, "durationMs": elapsed})
	r.metrics.ObserveDispatch(method, cmetrics.OutcomeOK)
	return Outcome{Result: normalized}
}

// execute runs the handler, converting a panic into an error.
func (r *Router) execute(ctx context.Context, d Descriptor, params map[string]any) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	return d.Handler(ctx, params)
}

func (r *Router) fail(method, outcome string, code int, message string, details any) Outcome {
	r.metrics.ObserveDispatch(method, outcome)
	return Outcome{Error: envelope.NewError(code, message, details)}
}

func (r *Router) emit(name string, fields map[string]any) {
	if err := r.telemetry.Emit(name, fields); err != nil {
		r.logger.Warn("dispatch.telemetry_failed", "event", name, "error", err)
	}
}

// suggest returns up to three registered names similar to method.
func (r *Router) suggest(method string) []string {
	type scored struct {
		name  string
		score float64
	}
	var candidates []scored
	for name := range r.handlers {
		if s := strutil.Similarity(method, name, r.similar); s >= suggestionThreshold {
			candidates = append(candidates, scored{name, s})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].name < candidates[j].name
	})

	var out []string
	for i := 0; i < len(candidates) && i < maxSuggestions; i++ {
		out = append(out, candidates[i].name)
	}
	return out
}

// normalize round-trips a result through JSON so validation and caching
// see the same shapes a client would.
func normalize(result any) (any, error) {
	if result == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
