package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRedactingHandler_MasksSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapHandler(slog.NewJSONHandler(&buf, nil)))

	logger.Info("server.request",
		"token", "abc123",
		"params", map[string]any{"password": "hunter2", "name": "ok"},
		slog.Group("auth_info", slog.String("secret", "s3")),
	)

	out := buf.String()
	for _, leaked := range []string{"abc123", "hunter2", "s3"} {
		if strings.Contains(out, leaked) {
			t.Errorf("log output leaked %q: %s", leaked, out)
		}
	}
	if !strings.Contains(out, `"name":"ok"`) {
		t.Errorf("non-sensitive values should survive: %s", out)
	}
}

func TestRedactingHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapHandler(slog.NewJSONHandler(&buf, nil))).With("apikey", "k-1")
	logger.Info("x")
	if strings.Contains(buf.String(), "k-1") {
		t.Errorf("With attrs leaked secret: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "conductor.log")
	setup, err := New("debug", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	setup.Logger.Debug("hello")
	if err := setup.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing message: %s", data)
	}
}
