package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/HendryAvila/conductor/internal/cancel"
	"github.com/HendryAvila/conductor/internal/dispatch"
	"github.com/HendryAvila/conductor/internal/envelope"
	"github.com/HendryAvila/conductor/internal/logging"
	"github.com/HendryAvila/conductor/internal/metrics"
	"github.com/HendryAvila/conductor/internal/prompts"
	"github.com/HendryAvila/conductor/internal/resources"
)

// CancelMethod is the reserved method that flags another request as
// cancelled.
const CancelMethod = "$/cancelRequest"

// Transport moves messages in and out of the server. Read returns nil, nil
// at end of stream.
type Transport interface {
	Read() (map[string]any, error)
	Write(v any) error
}

// Options wires a Server.
type Options struct {
	Transport Transport
	Router    *dispatch.Router
	Cancels   *cancel.Registry
	Resources []resources.Entry
	Prompts   []prompts.Entry
	TimeoutMs int // 0 disables the soft timeout
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Server reads one request at a time, handles it fully, and writes its
// response before reading the next. Responses are emitted in request order.
type Server struct {
	transport Transport
	router    *dispatch.Router
	cancels   *cancel.Registry
	resources []resources.Entry
	prompts   []prompts.Entry
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewServer creates a Server from opts.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	cancels := opts.Cancels
	if cancels == nil {
		cancels = cancel.NewRegistry()
	}
	router := opts.Router
	if router == nil {
		router = dispatch.New(dispatch.Options{Logger: logger})
	}
	return &Server{
		transport: opts.Transport,
		router:    router,
		cancels:   cancels,
		resources: opts.Resources,
		prompts:   opts.Prompts,
		timeout:   time.Duration(opts.TimeoutMs) * time.Millisecond,
		metrics:   opts.Metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Metrics returns the server's collectors, possibly nil.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Serve runs until end of stream, a transport failure, or ctx is done.
// A cancelled ctx is noticed between requests, never during one.
func (s *Server) Serve(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := s.transport.Read()
		if err != nil {
			s.logger.Error("server.read_failed", "error", err)
			return err
		}
		if msg == nil {
			s.logger.Info("server.eof")
			return nil
		}
		if len(msg) == 0 {
			continue
		}

		if err := s.transport.Write(s.Handle(ctx, msg)); err != nil {
			s.logger.Error("server.write_failed", "error", err)
			return err
		}
	}
}

// Handle produces the response for one decoded message.
func (s *Server) Handle(ctx context.Context, msg map[string]any) any {
	if isEnvelope(msg) {
		return msg
	}

	id := msg["id"]
	method, _ := msg["method"].(string)
	params, _ := msg["params"].(map[string]any)
	if params == nil {
		params = map[string]any{}
	}

	s.logger.Debug("server.request", "id", id, "method", method, "params", params)

	if method == "" {
		return envelope.Error(id, envelope.CodeInvalidRequest, "Invalid Request", nil, nil)
	}
	if method == CancelMethod {
		return s.handleCancel(id, params)
	}

	s.cancels.Register(id)
	defer s.cancels.Complete(id)

	start := s.now()
	result, failure := s.route(cancel.WithRequest(ctx, s.cancels, id), method, params)
	elapsed := s.now().Sub(start)
	s.metrics.ObserveDuration(method, elapsed)

	meta := map[string]any{"durationMs": elapsed.Milliseconds()}

	if s.timeout > 0 && elapsed > s.timeout {
		s.metrics.IncTimeout()
		s.logger.Warn("server.soft_timeout", "method", method, "elapsed_ms", elapsed.Milliseconds())
		return envelope.Error(id, envelope.CodeTimeout, "Request timed out", map[string]any{
			"timeoutMs": s.timeout.Milliseconds(),
			"elapsedMs": elapsed.Milliseconds(),
		}, meta)
	}
	if failure != nil {
		return envelope.Error(id, failure.Code, failure.Message, failure.Details, meta)
	}
	if detail, ok := envelope.FromResult(result); ok {
		return envelope.Error(id, detail.Code, detail.Message, detail.Details, meta)
	}
	return envelope.Success(id, result, meta)
}

// route sends method to a builtin or the dispatcher.
func (s *Server) route(ctx context.Context, method string, params map[string]any) (any, *envelope.ErrorDetail) {
	if builtin, ok := s.builtins()[method]; ok {
		return builtin(ctx, params)
	}
	out := s.router.Dispatch(ctx, method, params)
	return out.Result, out.Error
}

func (s *Server) handleCancel(id any, params map[string]any) envelope.Response {
	target := params["id"]
	cancelled := s.cancels.Cancel(target)
	s.metrics.IncCancel()
	s.logger.Debug("server.cancel", "target", target, "cancelled", cancelled)
	return envelope.Success(id, map[string]any{"cancelled": cancelled, "id": target}, nil)
}

// isEnvelope reports whether msg is already a response, as produced by the
// transport for lines it could not parse.
func isEnvelope(msg map[string]any) bool {
	_, hasErr := msg["error"]
	_, hasVersion := msg["version"]
	_, hasID := msg["id"]
	return hasErr && hasVersion && hasID
}
