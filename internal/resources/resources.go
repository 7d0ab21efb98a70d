// Package resources implements the read-only resources the server exposes.
//
// Resources use URI-based addressing (conductor://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/telemetry"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// Resource URIs.
const (
	URIWorkflowState   = "conductor://workflow/state"
	URITelemetryRecent = "conductor://telemetry/recent"
)

// recentLimit caps the telemetry resource.
const recentLimit = 50

// StateSource provides the workflow document.
type StateSource interface {
	Snapshot() workflow.Document
}

// EventSource provides recent telemetry events.
type EventSource interface {
	Recent(limit int) ([]telemetry.Event, error)
}

// ReadFunc serves one resource.
type ReadFunc func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)

// Entry pairs a resource definition with its reader.
type Entry struct {
	Resource mcp.Resource
	Read     ReadFunc
}

// Handler manages resource endpoints.
type Handler struct {
	state  StateSource
	events EventSource
}

// NewHandler creates a resource Handler. events may be nil when telemetry
// is disabled.
func NewHandler(state StateSource, events EventSource) *Handler {
	return &Handler{state: state, events: events}
}

// Entries lists every resource in a stable order.
func (h *Handler) Entries() []Entry {
	return []Entry{
		{h.StateResource(), h.HandleState},
		{h.TelemetryResource(), h.HandleTelemetry},
	}
}

// StateResource returns the MCP resource definition for the workflow state.
func (h *Handler) StateResource() mcp.Resource {
	return mcp.NewResource(
		URIWorkflowState,
		"Workflow State",
		mcp.WithResourceDescription("Persisted workflow document: mode, state, locks and history"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleState returns the workflow document as JSON.
func (h *Handler) HandleState(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(h.state.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling workflow state: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

// TelemetryResource returns the MCP resource definition for recent events.
func (h *Handler) TelemetryResource() mcp.Resource {
	return mcp.NewResource(
		URITelemetryRecent,
		"Recent Telemetry",
		mcp.WithResourceDescription(fmt.Sprintf("The %d most recent dispatch events, newest first", recentLimit)),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleTelemetry returns recent events, or a notice when telemetry is off.
func (h *Handler) HandleTelemetry(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if h.events == nil {
		return errorResource(req.Params.URI, "telemetry is disabled"), nil
	}
	events, err := h.events.Recent(recentLimit)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	data, err := json.MarshalIndent(map[string]any{"events": events}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling events: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

func jsonResource(uri string, data []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
