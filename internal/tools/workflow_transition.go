package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/envelope"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// TransitionTool handles the workflow_transition tool.
// An illegal move is reported as a structured 40900 error, not a failure.
type TransitionTool struct {
	wf Workflow
}

// NewTransitionTool creates a TransitionTool.
func NewTransitionTool(wf Workflow) *TransitionTool {
	return &TransitionTool{wf: wf}
}

// Definition returns the MCP tool definition for registration.
func (t *TransitionTool) Definition() mcp.Tool {
	return mcp.NewTool("workflow_transition",
		mcp.WithDescription(
			"Move the workflow to another state. The stage being left is locked. "+
				"Reaching ACCEPTED starts a new cycle at INIT with all locks cleared.",
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Target state"),
			mcp.Enum(stateNames(workflow.States)...),
		),
	)
}

// OutputSchema describes a successful transition.
func (t *TransitionTool) OutputSchema() map[string]any {
	return object(map[string]any{
		"ok":     typed("boolean"),
		"from":   typed("string"),
		"state":  typed("string"),
		"locked": arrayOf(typed("string")),
	}, "ok", "from", "state", "locked")
}

// Handle applies the transition.
func (t *TransitionTool) Handle(_ context.Context, params map[string]any) (any, error) {
	to := workflow.State(stringParam(params, "to", ""))

	res, err := t.wf.Transition(to)
	if err != nil {
		return nil, fmt.Errorf("transitioning to %s: %w", to, err)
	}
	if !res.OK {
		return envelope.NewError(envelope.CodeIllegalTransition, res.Message, map[string]any{
			"from":    string(res.From),
			"to":      string(to),
			"allowed": stateNames(workflow.AllowedFrom(res.From)),
		}).AsMap(), nil
	}

	return map[string]any{
		"ok":     true,
		"from":   string(res.From),
		"state":  string(res.State),
		"locked": t.wf.Snapshot().Locked,
	}, nil
}
