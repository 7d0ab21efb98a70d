package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ResetTool handles the workflow_reset tool.
type ResetTool struct {
	wf Workflow
}

// NewResetTool creates a ResetTool.
func NewResetTool(wf Workflow) *ResetTool {
	return &ResetTool{wf: wf}
}

// Definition returns the MCP tool definition for registration.
func (t *ResetTool) Definition() mcp.Tool {
	return mcp.NewTool("workflow_reset",
		mcp.WithDescription(
			"Return the workflow to INIT in quick mode, clearing locks and history. "+
				"Stage artifacts on disk are left untouched.",
		),
	)
}

// OutputSchema describes the result.
func (t *ResetTool) OutputSchema() map[string]any {
	return object(map[string]any{
		"state": typed("string"),
		"mode":  typed("string"),
	}, "state", "mode")
}

// Handle resets the workflow.
func (t *ResetTool) Handle(_ context.Context, _ map[string]any) (any, error) {
	if err := t.wf.Reset(); err != nil {
		return nil, fmt.Errorf("resetting workflow: %w", err)
	}
	doc := t.wf.Snapshot()
	return map[string]any{"state": string(doc.State), "mode": string(doc.Mode)}, nil
}
