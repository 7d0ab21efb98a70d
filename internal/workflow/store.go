package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// Dir is the per-project directory holding conductor state.
	Dir = ".conductor"
	// StateFile is the filename of the persisted workflow document.
	StateFile = "workflow_state.json"
	// ArtifactsDir is the subdirectory under Dir holding stage artifacts.
	ArtifactsDir = "artifacts"
)

// StatePath returns the absolute path to the workflow document.
func StatePath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, StateFile)
}

// ArtifactsPath returns the directory holding stage artifacts.
func ArtifactsPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, ArtifactsDir)
}

// FindProjectRoot walks up from start looking for an existing .conductor/
// directory. If none is found, start itself is the root.
func FindProjectRoot(start string) string {
	current := start
	for {
		if info, err := os.Stat(filepath.Join(current, Dir)); err == nil && info.IsDir() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return start
		}
		current = parent
	}
}

// readDocument loads the document at path. A missing file yields a fresh
// document and created=true.
func readDocument(path string) (doc *Document, created bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDocument(), true, nil
		}
		return nil, false, fmt.Errorf("reading workflow state: %w", err)
	}

	doc = &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, false, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return doc, false, nil
}

// writeDocument rewrites the whole document in place. There is no rename
// and no file lock: a single process owns the file.
func writeDocument(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling workflow state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
