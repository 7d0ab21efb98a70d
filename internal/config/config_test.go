package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, root, body string) {
	t.Helper()
	dir := filepath.Join(root, ".conductor")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// --- Defaults ---

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()
	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !s.TelemetryEnabled {
		t.Error("telemetry should default to enabled")
	}
	if s.GlobalRateLimit != 0 || s.TimeoutMs != 0 {
		t.Errorf("rate/timeout defaults = %d/%d, want 0/0", s.GlobalRateLimit, s.TimeoutMs)
	}
	if s.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", s.LogLevel)
	}
	if s.DataDir != filepath.Join(root, ".conductor") {
		t.Errorf("DataDir = %q", s.DataDir)
	}
	if s.CacheTTL["workflow_status"] != 10 || s.CacheTTL["artifacts_list"] != 10 {
		t.Errorf("default TTLs = %v", s.CacheTTL)
	}
	want := []string{filepath.Join(".conductor", "workflow_state.json")}
	if !reflect.DeepEqual(s.CacheWatch["workflow_status"], want) {
		t.Errorf("default watch = %v, want %v", s.CacheWatch["workflow_status"], want)
	}
	wantList := []string{
		filepath.Join(".conductor", "artifacts", "*.md"),
		filepath.Join(".conductor", "workflow_state.json"),
	}
	if !reflect.DeepEqual(s.CacheWatch["artifacts_list"], wantList) {
		t.Errorf("artifacts_list watch = %v, want %v", s.CacheWatch["artifacts_list"], wantList)
	}
	if s.ConfigFile != "" {
		t.Errorf("ConfigFile = %q, want empty", s.ConfigFile)
	}
}

// --- File ---

func TestLoad_FromFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
telemetry:
  enabled: false
rate_limit:
  global: 100
  methods:
    artifact_write: 5
cache:
  ttl:
    workflow_status: 0
    artifact_read: 30
  watch:
    artifact_read: ["docs/*.md"]
timeout_ms: 2500
log:
  level: debug
data_dir: state
`)

	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.TelemetryEnabled {
		t.Error("telemetry.enabled=false not applied")
	}
	if s.GlobalRateLimit != 100 || s.MethodRateLimits["artifact_write"] != 5 {
		t.Errorf("limits = %d %v", s.GlobalRateLimit, s.MethodRateLimits)
	}
	if s.CacheTTL["workflow_status"] != 0 {
		t.Error("explicit zero TTL must override the default")
	}
	if s.CacheTTL["artifact_read"] != 30 || s.CacheTTL["artifacts_list"] != 10 {
		t.Errorf("ttl = %v", s.CacheTTL)
	}
	if !reflect.DeepEqual(s.CacheWatch["artifact_read"], []string{"docs/*.md"}) {
		t.Errorf("watch = %v", s.CacheWatch)
	}
	if s.TimeoutMs != 2500 || s.LogLevel != "debug" {
		t.Errorf("timeout/log = %d/%s", s.TimeoutMs, s.LogLevel)
	}
	if s.DataDir != filepath.Join(root, "state") {
		t.Errorf("relative data_dir should resolve under the project, got %q", s.DataDir)
	}
	if s.ConfigFile == "" {
		t.Error("ConfigFile should name the file read")
	}
}

// --- Environment ---

func TestLoad_EnvOverrides(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "rate_limit:\n  global: 100\n")
	t.Setenv("CONDUCTOR_RATE_LIMIT_GLOBAL", "7")
	t.Setenv("CONDUCTOR_RATE_LIMIT_METHODS", `{"workflow_status": 3}`)
	t.Setenv("CONDUCTOR_CACHE_WATCH", `{"artifact_read": ["a.md", "b.md"]}`)
	t.Setenv("CONDUCTOR_TELEMETRY_ENABLED", "false")
	t.Setenv("CONDUCTOR_METRICS_ADDR", "127.0.0.1:9464")

	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.GlobalRateLimit != 7 {
		t.Errorf("GlobalRateLimit = %d, want 7 from env", s.GlobalRateLimit)
	}
	if s.MethodRateLimits["workflow_status"] != 3 {
		t.Errorf("MethodRateLimits = %v", s.MethodRateLimits)
	}
	if !reflect.DeepEqual(s.CacheWatch["artifact_read"], []string{"a.md", "b.md"}) {
		t.Errorf("CacheWatch = %v", s.CacheWatch)
	}
	if s.TelemetryEnabled {
		t.Error("env should disable telemetry")
	}
	if s.MetricsAddr != "127.0.0.1:9464" {
		t.Errorf("MetricsAddr = %q", s.MetricsAddr)
	}
}

func TestLoad_BadEnvMap(t *testing.T) {
	t.Setenv("CONDUCTOR_CACHE_TTL", "not-json")
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for malformed JSON map")
	}
}

func TestSettings_Projections(t *testing.T) {
	s := &Settings{
		ProjectRoot:      "/p",
		GlobalRateLimit:  9,
		MethodRateLimits: map[string]int{"x": 1},
		CacheTTL:         map[string]int{"x": 5},
		CacheWatch:       map[string][]string{"x": {"f"}},
	}
	if l := s.Limits(); l.Global != 9 || l.PerMethod["x"] != 1 {
		t.Errorf("Limits = %+v", l)
	}
	if c := s.Cache(); c.Root != "/p" || c.TTL["x"] != 5 || c.Watch["x"][0] != "f" {
		t.Errorf("Cache = %+v", c)
	}
}
