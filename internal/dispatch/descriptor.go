package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// HandlerFunc executes one request. A handler may report a domain failure
// by returning a structured {error:{code,message,details?}} result; a
// returned Go error is treated as an internal failure.
type HandlerFunc func(ctx context.Context, params map[string]any) (any, error)

// Descriptor describes a registered handler.
type Descriptor struct {
	Name          string
	Description   string
	InputSchema   map[string]any
	OutputSchema  map[string]any
	AllowedStates []string // empty means unrestricted
	Handler       HandlerFunc

	// Discovered marks a handler registered generically rather than wired
	// explicitly at startup. A discovered handler never replaces an
	// explicitly registered one.
	Discovered bool
}

// Info is the listing shape of a Descriptor.
type Info struct {
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	InputSchema   map[string]any `json:"inputSchema,omitempty"`
	OutputSchema  map[string]any `json:"outputSchema,omitempty"`
	AllowedStates []string       `json:"allowedStates,omitempty"`
}

// FromTool builds a Descriptor from an MCP tool definition, taking its name,
// description and JSON input schema.
func FromTool(tool mcp.Tool, handler HandlerFunc) (Descriptor, error) {
	data, err := json.Marshal(tool)
	if err != nil {
		return Descriptor{}, fmt.Errorf("encoding tool %s: %w", tool.Name, err)
	}
	var raw struct {
		InputSchema map[string]any `json:"inputSchema"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Descriptor{}, fmt.Errorf("decoding tool %s schema: %w", tool.Name, err)
	}
	return Descriptor{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: raw.InputSchema,
		Handler:     handler,
	}, nil
}

func (d Descriptor) info() Info {
	return Info{
		Name:          d.Name,
		Description:   d.Description,
		InputSchema:   d.InputSchema,
		OutputSchema:  d.OutputSchema,
		AllowedStates: d.AllowedStates,
	}
}
