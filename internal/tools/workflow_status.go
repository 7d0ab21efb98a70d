package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles the workflow_status tool.
type StatusTool struct {
	wf Workflow
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(wf Workflow) *StatusTool {
	return &StatusTool{wf: wf}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("workflow_status",
		mcp.WithDescription(
			"Show the current workflow state and mode, the locked stages, "+
				"and which states can be reached next.",
		),
	)
}

// OutputSchema describes the result.
func (t *StatusTool) OutputSchema() map[string]any {
	return object(map[string]any{
		"mode":          typed("string"),
		"state":         typed("string"),
		"locked":        arrayOf(typed("string")),
		"allowedNext":   arrayOf(typed("string")),
		"historyLength": typed("integer"),
	}, "mode", "state", "locked", "allowedNext", "historyLength")
}

// Handle reports the workflow status.
func (t *StatusTool) Handle(_ context.Context, _ map[string]any) (any, error) {
	doc := t.wf.Snapshot()
	return map[string]any{
		"mode":          string(doc.Mode),
		"state":         string(doc.State),
		"locked":        doc.Locked,
		"allowedNext":   stateNames(t.wf.AllowedNext()),
		"historyLength": len(doc.History),
	}, nil
}
