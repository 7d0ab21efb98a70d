// Package server wires all components and runs the request loop.
//
// server.go is the composition root: it creates concrete implementations
// and injects them into the dispatcher, tools, prompts and resources that
// depend on abstractions. loop.go holds the read-process-write cycle and
// builtins.go the methods answered without the dispatcher.
package server

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/HendryAvila/conductor/internal/cache"
	"github.com/HendryAvila/conductor/internal/cancel"
	"github.com/HendryAvila/conductor/internal/config"
	"github.com/HendryAvila/conductor/internal/dispatch"
	"github.com/HendryAvila/conductor/internal/logging"
	"github.com/HendryAvila/conductor/internal/metrics"
	"github.com/HendryAvila/conductor/internal/prompts"
	"github.com/HendryAvila/conductor/internal/ratelimit"
	"github.com/HendryAvila/conductor/internal/resources"
	"github.com/HendryAvila/conductor/internal/telemetry"
	"github.com/HendryAvila/conductor/internal/tools"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates a Server for the project described by settings, reading and
// writing through tr.
//
// The returned cleanup function closes the telemetry store and must be
// called on shutdown. It is always non-nil and safe to call even if
// telemetry init failed.
func New(settings *config.Settings, tr Transport, logger *slog.Logger) (*Server, func(), error) {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With("session", uuid.NewString())

	// --- Workflow state ---

	machine, err := workflow.Load(workflow.StatePath(settings.ProjectRoot))
	if err != nil {
		return nil, noop, fmt.Errorf("loading workflow state: %w", err)
	}

	// --- Telemetry ---
	//
	// Telemetry is an independent subsystem: if the store fails to open,
	// dispatch keeps working with a no-op sink and a logged warning.

	cleanup := noop
	var sink telemetry.Sink = telemetry.Nop{}
	var events resources.EventSource
	if settings.TelemetryEnabled {
		store, err := telemetry.New(telemetry.DefaultConfig(settings.DataDir))
		if err != nil {
			logger.Warn("server.telemetry_disabled", "error", err)
		} else {
			sink = store
			events = store
			cleanup = func() {
				if err := store.Close(); err != nil {
					logger.Warn("server.telemetry_close", "error", err)
				}
			}
		}
	}

	// --- Dispatcher ---

	m := metrics.New()
	router := dispatch.New(dispatch.Options{
		Limiter:   ratelimit.New(settings.Limits()),
		Cache:     cache.New(settings.Cache()),
		States:    machine,
		Telemetry: sink,
		Metrics:   m,
		Logger:    logger,
	})

	// --- Register tools ---

	if err := tools.RegisterAll(router, settings.ProjectRoot, machine); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("registering tools: %w", err)
	}

	// --- Resources and prompts ---

	res := resources.NewHandler(machine, events)

	s := NewServer(Options{
		Transport: tr,
		Router:    router,
		Cancels:   cancel.NewRegistry(),
		Resources: res.Entries(),
		Prompts:   prompts.All(),
		TimeoutMs: settings.TimeoutMs,
		Metrics:   m,
		Logger:    logger,
	})

	logger.Info("server.started",
		"version", Version,
		"project", settings.ProjectRoot,
		"config", settings.ConfigFile,
		"telemetry", events != nil,
		"handlers", len(router.Handlers()),
	)
	return s, cleanup, nil
}

func noop() {}
