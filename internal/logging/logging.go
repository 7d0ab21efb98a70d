// Package logging builds the structured logger used across the server.
//
// Logs never go to stdout, which carries the protocol. Attribute values
// under sensitive keys are masked before they reach the handler.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/conductor/internal/envelope"
)

// Setup is a configured logger plus the function that releases its output.
type Setup struct {
	Logger *slog.Logger
	Close  func() error
	Path   string
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a JSON logger writing to path, or to stderr when path is empty.
func New(level, path string) (Setup, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if path == "" {
		return Setup{
			Logger: slog.New(WrapHandler(slog.NewJSONHandler(os.Stderr, opts))),
			Close:  func() error { return nil },
		}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Setup{Logger: Nop(), Close: func() error { return nil }}, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return Setup{Logger: Nop(), Close: func() error { return nil }}, err
	}
	return Setup{
		Logger: slog.New(WrapHandler(slog.NewJSONHandler(file, opts))),
		Close:  file.Close,
		Path:   path,
	}, nil
}

// RedactingHandler masks sensitive attributes before delegating.
type RedactingHandler struct {
	next slog.Handler
}

// WrapHandler wraps next with redaction.
func WrapHandler(next slog.Handler) slog.Handler {
	return &RedactingHandler{next: next}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(redactAttr(attr))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redactAttr(a)
	}
	return &RedactingHandler{next: h.next.WithAttrs(clean)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name)}
}

func redactAttr(attr slog.Attr) slog.Attr {
	if envelope.IsSensitiveKey(attr.Key) {
		return slog.String(attr.Key, envelope.Mask)
	}
	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		clean := make([]any, len(group))
		for i, a := range group {
			clean[i] = redactAttr(a)
		}
		return slog.Group(attr.Key, clean...)
	case slog.KindAny:
		if m, ok := attr.Value.Any().(map[string]any); ok {
			return slog.Any(attr.Key, envelope.Redact(m))
		}
	}
	return attr
}
