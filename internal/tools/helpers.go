// Package tools implements the handler catalog: workflow control and stage
// artifact management.
//
// Each tool is a struct that receives its dependencies through its
// constructor and exposes an MCP tool definition plus a Handle function
// compatible with dispatch.HandlerFunc.
//
// Design principles:
// - each file = one tool
// - tools depend on the Workflow interface, not on *workflow.Machine
// - new tools are added without modifying existing ones
package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/workflow"
)

// Workflow is the subset of the state machine the tools need.
type Workflow interface {
	Snapshot() workflow.Document
	AllowedNext() []workflow.State
	IsLocked(stage workflow.State) bool
	Transition(to workflow.State) (workflow.Result, error)
	SetMode(mode workflow.Mode) error
	Reset() error
}

// Tool is one entry in the catalog.
type Tool interface {
	Definition() mcp.Tool
	OutputSchema() map[string]any
	Handle(ctx context.Context, params map[string]any) (any, error)
}

// Gated is implemented by tools that may only run in certain workflow
// states.
type Gated interface {
	AllowedStates() []string
}

// --- Params ---

func stringParam(params map[string]any, key, fallback string) string {
	if s, ok := params[key].(string); ok {
		return s
	}
	return fallback
}

func intParam(params map[string]any, key string, fallback int) int {
	if n, ok := params[key].(float64); ok {
		return int(n)
	}
	return fallback
}

// --- Schemas ---

// object builds an object schema from property schemas and required names.
func object(props map[string]any, required ...string) map[string]any {
	req := make([]any, len(required))
	for i, r := range required {
		req[i] = r
	}
	return map[string]any{"type": "object", "properties": props, "required": req}
}

func typed(t string) map[string]any {
	return map[string]any{"type": t}
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func stateNames(states []workflow.State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

// artifactStages lists the states that own an artifact file.
func artifactStages() []string {
	var out []string
	for _, s := range workflow.States {
		if workflow.ArtifactFilename(s) != "" {
			out = append(out, string(s))
		}
	}
	return out
}

// --- Files ---

// readStageFile reads the content of a stage's markdown artifact.
// A missing file returns an empty string and exists=false.
func readStageFile(path string) (content string, exists bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), true, nil
}

// writeStageFile writes content to a stage's markdown artifact,
// creating parent directories as needed.
func writeStageFile(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// relPath renders path relative to root for results, falling back to path.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
