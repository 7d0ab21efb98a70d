package tools

import (
	"context"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/workflow"
)

// ArtifactReadTool handles the artifact_read tool.
type ArtifactReadTool struct {
	root string
	wf   Workflow
}

// NewArtifactReadTool creates an ArtifactReadTool for the project at root.
func NewArtifactReadTool(root string, wf Workflow) *ArtifactReadTool {
	return &ArtifactReadTool{root: root, wf: wf}
}

// Definition returns the MCP tool definition for registration.
func (t *ArtifactReadTool) Definition() mcp.Tool {
	return mcp.NewTool("artifact_read",
		mcp.WithDescription("Read the markdown artifact of a workflow stage."),
		mcp.WithString("stage",
			mcp.Required(),
			mcp.Description("Stage whose artifact to read"),
			mcp.Enum(artifactStages()...),
		),
	)
}

// OutputSchema describes the result.
func (t *ArtifactReadTool) OutputSchema() map[string]any {
	return object(map[string]any{
		"stage":   typed("string"),
		"content": typed("string"),
		"exists":  typed("boolean"),
		"locked":  typed("boolean"),
	}, "stage", "content", "exists", "locked")
}

// Handle returns the artifact content. A missing artifact is not an error.
func (t *ArtifactReadTool) Handle(_ context.Context, params map[string]any) (any, error) {
	stage := workflow.State(stringParam(params, "stage", ""))
	path := filepath.Join(workflow.ArtifactsPath(t.root), workflow.ArtifactFilename(stage))

	content, exists, err := readStageFile(path)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"stage":   string(stage),
		"content": content,
		"exists":  exists,
		"locked":  t.wf.IsLocked(stage),
	}, nil
}
