package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	if len(res.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(res.Messages))
	}
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T", res.Messages[0].Content)
	}
	return tc.Text
}

func TestAll_Names(t *testing.T) {
	entries := All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].Prompt.Name != "workflow-start" || entries[1].Prompt.Name != "workflow-status" {
		t.Errorf("names = %s, %s", entries[0].Prompt.Name, entries[1].Prompt.Name)
	}
}

func TestStartPrompt_Handle(t *testing.T) {
	tests := []struct {
		name string
		args map[string]string
		want string
	}{
		{"default mode", nil, "mode='quick'"},
		{"standard mode", map[string]string{"mode": "standard"}, "mode='standard'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.GetPromptRequest{}
			req.Params.Arguments = tt.args

			res, err := NewStartPrompt().Handle(context.Background(), req)
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			text := promptText(t, res)
			if !strings.Contains(text, tt.want) {
				t.Errorf("text missing %q:\n%s", tt.want, text)
			}
			if !strings.Contains(text, "workflow_reset") {
				t.Error("prompt should reference workflow_reset")
			}
		})
	}
}

func TestStatusPrompt_Handle(t *testing.T) {
	res, err := NewStatusPrompt().Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := promptText(t, res); !strings.Contains(text, "workflow_status") {
		t.Errorf("text = %q", text)
	}
}
