package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// HistoryTool handles the workflow_history tool.
type HistoryTool struct {
	wf Workflow
}

// NewHistoryTool creates a HistoryTool.
func NewHistoryTool(wf Workflow) *HistoryTool {
	return &HistoryTool{wf: wf}
}

// Definition returns the MCP tool definition for registration.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("workflow_history",
		mcp.WithDescription("List applied transitions, oldest first."),
		mcp.WithNumber("limit",
			mcp.Description("Only return the most recent N entries."),
			mcp.Min(1),
		),
	)
}

// OutputSchema describes the result.
func (t *HistoryTool) OutputSchema() map[string]any {
	entry := object(map[string]any{
		"from":      typed("string"),
		"to":        typed("string"),
		"timestamp": typed("string"),
	}, "from", "to", "timestamp")
	return object(map[string]any{"history": arrayOf(entry)}, "history")
}

// Handle returns the history, trimmed to the most recent limit entries.
func (t *HistoryTool) Handle(_ context.Context, params map[string]any) (any, error) {
	history := t.wf.Snapshot().History
	if limit := intParam(params, "limit", 0); limit > 0 && limit < len(history) {
		history = history[len(history)-limit:]
	}
	return map[string]any{"history": history}, nil
}
