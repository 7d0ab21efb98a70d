package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/workflow"
)

// SetModeTool handles the workflow_set_mode tool.
type SetModeTool struct {
	wf Workflow
}

// NewSetModeTool creates a SetModeTool.
func NewSetModeTool(wf Workflow) *SetModeTool {
	return &SetModeTool{wf: wf}
}

// Definition returns the MCP tool definition for registration.
func (t *SetModeTool) Definition() mcp.Tool {
	return mcp.NewTool("workflow_set_mode",
		mcp.WithDescription("Switch between quick and standard workflow mode."),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Description("Workflow mode"),
			mcp.Enum(string(workflow.ModeQuick), string(workflow.ModeStandard)),
		),
	)
}

// OutputSchema describes the result.
func (t *SetModeTool) OutputSchema() map[string]any {
	return object(map[string]any{"mode": typed("string")}, "mode")
}

// Handle sets the mode.
func (t *SetModeTool) Handle(_ context.Context, params map[string]any) (any, error) {
	mode := workflow.Mode(stringParam(params, "mode", ""))
	if err := t.wf.SetMode(mode); err != nil {
		return nil, fmt.Errorf("setting mode: %w", err)
	}
	return map[string]any{"mode": string(t.wf.Snapshot().Mode)}, nil
}
