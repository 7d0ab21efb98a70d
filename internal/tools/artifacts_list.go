package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/workflow"
)

// ArtifactsListTool handles the artifacts_list tool.
type ArtifactsListTool struct {
	root string
	wf   Workflow
}

// NewArtifactsListTool creates an ArtifactsListTool for the project at root.
func NewArtifactsListTool(root string, wf Workflow) *ArtifactsListTool {
	return &ArtifactsListTool{root: root, wf: wf}
}

// Definition returns the MCP tool definition for registration.
func (t *ArtifactsListTool) Definition() mcp.Tool {
	return mcp.NewTool("artifacts_list",
		mcp.WithDescription("List the stage artifacts present on disk, in pipeline order."),
	)
}

// OutputSchema describes the result.
func (t *ArtifactsListTool) OutputSchema() map[string]any {
	item := object(map[string]any{
		"stage":  typed("string"),
		"path":   typed("string"),
		"bytes":  typed("integer"),
		"locked": typed("boolean"),
	}, "stage", "path", "bytes", "locked")
	return object(map[string]any{"artifacts": arrayOf(item)}, "artifacts")
}

// Handle lists artifacts that exist.
func (t *ArtifactsListTool) Handle(_ context.Context, _ map[string]any) (any, error) {
	dir := workflow.ArtifactsPath(t.root)
	artifacts := []map[string]any{}

	for _, stage := range workflow.States {
		filename := workflow.ArtifactFilename(stage)
		if filename == "" {
			continue
		}
		path := filepath.Join(dir, filename)
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", filename, err)
		}
		artifacts = append(artifacts, map[string]any{
			"stage":  string(stage),
			"path":   relPath(t.root, path),
			"bytes":  info.Size(),
			"locked": t.wf.IsLocked(stage),
		})
	}
	return map[string]any{"artifacts": artifacts}, nil
}
