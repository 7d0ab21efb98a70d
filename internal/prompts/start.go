package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the workflow-start prompt.
// It guides the client through opening a new workflow cycle.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("workflow-start",
		mcp.WithPromptDescription(
			"Start a new workflow cycle: reset state, pick a mode, "+
				"and write the first analysis artifact.",
		),
		mcp.WithArgument("mode",
			mcp.ArgumentDescription("Workflow mode: 'quick' or 'standard'. Default: quick"),
		),
	)
}

// Handle processes the workflow-start prompt request.
func (p *StartPrompt) Handle(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	mode := "quick"
	if args := req.Params.Arguments; args != nil {
		if m, ok := args["mode"]; ok && m != "" {
			mode = m
		}
	}

	guidance := "Keep each artifact short: a few bullet points per stage is enough."
	if mode == "standard" {
		guidance = "Write a complete artifact for every stage before transitioning; reviewers will read them."
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start workflow in %s mode", mode),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to start a new workflow cycle in %s mode.\n\n"+
						"Please:\n"+
						"1. Run `workflow_reset`\n"+
						"2. Run `workflow_set_mode` with mode='%s'\n"+
						"3. Ask me what we are building, then save it with `artifact_write` for stage INIT\n"+
						"4. When the analysis is ready, run `workflow_transition` to ANALYSIS_COMPLETE\n\n"+
						"%s",
					mode, mode, guidance,
				)),
			},
		},
	}, nil
}
