package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the workflow-status prompt.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("workflow-status",
		mcp.WithPromptDescription(
			"Check where the workflow stands, which stages are locked, "+
				"and what to do next.",
		),
	)
}

// Handle processes the workflow-status prompt request.
func (p *StatusPrompt) Handle(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Workflow Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `workflow_status` and `artifacts_list`.\n\n" +
						"Then:\n" +
						"1. Show me the current state and the states I can move to\n" +
						"2. List which stage artifacts exist and which are locked\n" +
						"3. Tell me exactly what I should do next",
				),
			},
		},
	}, nil
}
