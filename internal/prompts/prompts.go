// Package prompts implements the prompts the server exposes.
//
// Prompts are user-triggered workflows (like slash commands) that instruct
// the client to run a specific sequence of tools. Unlike tools, which the
// client calls, prompts are initiated by the user.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// HandleFunc renders one prompt.
type HandleFunc func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error)

// Entry pairs a prompt definition with its handler.
type Entry struct {
	Prompt mcp.Prompt
	Handle HandleFunc
}

// All lists every prompt in a stable order.
func All() []Entry {
	start := NewStartPrompt()
	status := NewStatusPrompt()
	return []Entry{
		{start.Definition(), start.Handle},
		{status.Definition(), status.Handle},
	}
}
