package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/HendryAvila/conductor/internal/envelope"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// ArtifactWriteTool handles the artifact_write tool. It refuses to touch
// the artifact of a locked stage.
type ArtifactWriteTool struct {
	root string
	wf   Workflow
}

// NewArtifactWriteTool creates an ArtifactWriteTool for the project at root.
func NewArtifactWriteTool(root string, wf Workflow) *ArtifactWriteTool {
	return &ArtifactWriteTool{root: root, wf: wf}
}

// Definition returns the MCP tool definition for registration.
func (t *ArtifactWriteTool) Definition() mcp.Tool {
	return mcp.NewTool("artifact_write",
		mcp.WithDescription(
			"Write the markdown artifact for a workflow stage. "+
				"Stages that have already been left are locked and cannot be rewritten.",
		),
		mcp.WithString("stage",
			mcp.Required(),
			mcp.Description("Stage whose artifact to write"),
			mcp.Enum(artifactStages()...),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Full markdown content of the artifact"),
			mcp.MinLength(1),
		),
	)
}

// OutputSchema describes the result.
func (t *ArtifactWriteTool) OutputSchema() map[string]any {
	return object(map[string]any{
		"stage":    typed("string"),
		"path":     typed("string"),
		"bytes":    typed("integer"),
		"inserted": typed("integer"),
		"deleted":  typed("integer"),
	}, "stage", "path", "bytes", "inserted", "deleted")
}

// AllowedStates keeps artifacts writable everywhere except the ACCEPTED
// pass-through.
func (t *ArtifactWriteTool) AllowedStates() []string {
	var out []string
	for _, s := range workflow.States {
		if s != workflow.StateAccepted {
			out = append(out, string(s))
		}
	}
	return out
}

// Handle writes the artifact and reports how many lines changed.
func (t *ArtifactWriteTool) Handle(_ context.Context, params map[string]any) (any, error) {
	stage := workflow.State(stringParam(params, "stage", ""))
	content := stringParam(params, "content", "")

	if t.wf.IsLocked(stage) {
		return envelope.NewError(envelope.CodeArtifactLocked,
			fmt.Sprintf("Artifact for stage %s is locked", stage),
			map[string]any{"stage": string(stage)},
		).AsMap(), nil
	}

	path := filepath.Join(workflow.ArtifactsPath(t.root), workflow.ArtifactFilename(stage))
	previous, _, err := readStageFile(path)
	if err != nil {
		return nil, err
	}
	if err := writeStageFile(path, content); err != nil {
		return nil, fmt.Errorf("writing %s artifact: %w", stage, err)
	}

	inserted, deleted := lineChanges(previous, content)
	return map[string]any{
		"stage":    string(stage),
		"path":     relPath(t.root, path),
		"bytes":    len(content),
		"inserted": inserted,
		"deleted":  deleted,
	}, nil
}

// lineChanges counts added and removed lines between two versions.
func lineChanges(before, after string) (inserted, deleted int) {
	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(beforeChars, afterChars, false), lineArray)

	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += n
		case diffmatchpatch.DiffDelete:
			deleted += n
		}
	}
	return inserted, deleted
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
