// Package config loads server settings from an optional project config file
// and CONDUCTOR_* environment variables.
//
// Lookup order (highest wins): environment, <project>/.conductor/config.yaml,
// built-in defaults. Map-valued keys read from the environment are JSON
// objects, e.g. CONDUCTOR_RATE_LIMIT_METHODS='{"workflow_status":30}'.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/HendryAvila/conductor/internal/cache"
	"github.com/HendryAvila/conductor/internal/ratelimit"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONDUCTOR"

// Config keys.
const (
	KeyTelemetryEnabled = "telemetry.enabled"
	KeyRateGlobal       = "rate_limit.global"
	KeyRateMethods      = "rate_limit.methods"
	KeyCacheTTL         = "cache.ttl"
	KeyCacheWatch       = "cache.watch"
	KeyTimeoutMs        = "timeout_ms"
	KeyLogLevel         = "log.level"
	KeyLogFile          = "log.file"
	KeyDataDir          = "data_dir"
	KeyMetricsAddr      = "metrics.addr"
)

var allKeys = []string{
	KeyTelemetryEnabled, KeyRateGlobal, KeyRateMethods, KeyCacheTTL, KeyCacheWatch,
	KeyTimeoutMs, KeyLogLevel, KeyLogFile, KeyDataDir, KeyMetricsAddr,
}

// defaultTTL applies to methods whose results only change with the files
// they watch.
var defaultTTL = map[string]int{
	"workflow_status": 10,
	"artifacts_list":  10,
}

var defaultWatch = map[string][]string{
	"workflow_status": {filepath.Join(workflow.Dir, workflow.StateFile)},
	"artifacts_list": {
		filepath.Join(workflow.Dir, workflow.ArtifactsDir, "*.md"),
		filepath.Join(workflow.Dir, workflow.StateFile),
	},
}

// Settings is the resolved configuration.
type Settings struct {
	ProjectRoot      string
	DataDir          string
	TelemetryEnabled bool
	GlobalRateLimit  int
	MethodRateLimits map[string]int
	CacheTTL         map[string]int
	CacheWatch       map[string][]string
	TimeoutMs        int
	LogLevel         string
	LogFile          string
	MetricsAddr      string
	ConfigFile       string // empty when no file was found
}

// Load resolves settings for the project rooted at projectRoot.
func Load(projectRoot string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(projectRoot, workflow.Dir))

	v.SetDefault(KeyTelemetryEnabled, true)
	v.SetDefault(KeyRateGlobal, 0)
	v.SetDefault(KeyTimeoutMs, 0)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyDataDir, filepath.Join(projectRoot, workflow.Dir))
	v.SetDefault(KeyMetricsAddr, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range allKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	s := &Settings{
		ProjectRoot: projectRoot,
		ConfigFile:  v.ConfigFileUsed(),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFile:     v.GetString(KeyLogFile),
		MetricsAddr: v.GetString(KeyMetricsAddr),
	}

	var err error
	if s.TelemetryEnabled, err = cast.ToBoolE(v.Get(KeyTelemetryEnabled)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyTelemetryEnabled, err)
	}
	if s.GlobalRateLimit, err = cast.ToIntE(v.Get(KeyRateGlobal)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyRateGlobal, err)
	}
	if s.TimeoutMs, err = cast.ToIntE(v.Get(KeyTimeoutMs)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyTimeoutMs, err)
	}
	if s.MethodRateLimits, err = intMap(v.Get(KeyRateMethods)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyRateMethods, err)
	}
	if s.CacheTTL, err = intMap(v.Get(KeyCacheTTL)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyCacheTTL, err)
	}
	if s.CacheWatch, err = sliceMap(v.Get(KeyCacheWatch)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyCacheWatch, err)
	}

	for method, ttl := range defaultTTL {
		if _, ok := s.CacheTTL[method]; !ok {
			s.CacheTTL[method] = ttl
		}
	}
	for method, patterns := range defaultWatch {
		if _, ok := s.CacheWatch[method]; !ok {
			s.CacheWatch[method] = append([]string(nil), patterns...)
		}
	}

	s.DataDir = v.GetString(KeyDataDir)
	if !filepath.IsAbs(s.DataDir) {
		s.DataDir = filepath.Join(projectRoot, s.DataDir)
	}
	return s, nil
}

// Limits returns the rate limiter configuration.
func (s *Settings) Limits() ratelimit.Limits {
	return ratelimit.Limits{Global: s.GlobalRateLimit, PerMethod: s.MethodRateLimits}
}

// Cache returns the result cache configuration.
func (s *Settings) Cache() cache.Config {
	return cache.Config{Root: s.ProjectRoot, TTL: s.CacheTTL, Watch: s.CacheWatch}
}

// --- Map decoding ---

// rawMap accepts a decoded map from a config file or a JSON object string
// from the environment.
func rawMap(v any) (map[string]any, error) {
	switch val := v.(type) {
	case nil:
		return map[string]any{}, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return map[string]any{}, nil
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(val), &m); err != nil {
			return nil, fmt.Errorf("expected a JSON object: %w", err)
		}
		return m, nil
	default:
		return cast.ToStringMapE(val)
	}
}

func intMap(v any) (map[string]int, error) {
	raw, err := rawMap(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(raw))
	for k, val := range raw {
		n, err := cast.ToIntE(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

func sliceMap(v any) (map[string][]string, error) {
	raw, err := rawMap(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(raw))
	for k, val := range raw {
		list, err := cast.ToStringSliceE(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = list
	}
	return out, nil
}
