package tools

import (
	"fmt"

	"github.com/HendryAvila/conductor/internal/dispatch"
)

// Registrar is what the catalog registers into.
type Registrar interface {
	Register(d dispatch.Descriptor) error
}

// Workflows returns the explicitly wired workflow control tools.
func Workflows(wf Workflow) []Tool {
	return []Tool{
		NewStatusTool(wf),
		NewTransitionTool(wf),
		NewResetTool(wf),
		NewSetModeTool(wf),
		NewHistoryTool(wf),
	}
}

// Artifacts returns the per-stage artifact tools. They are registered as
// discovered handlers, so an explicit tool of the same name wins.
func Artifacts(root string, wf Workflow) []Tool {
	return []Tool{
		NewArtifactWriteTool(root, wf),
		NewArtifactReadTool(root, wf),
		NewArtifactsListTool(root, wf),
	}
}

// Describe converts a tool into a dispatch descriptor.
func Describe(t Tool, discovered bool) (dispatch.Descriptor, error) {
	d, err := dispatch.FromTool(t.Definition(), t.Handle)
	if err != nil {
		return dispatch.Descriptor{}, err
	}
	d.OutputSchema = t.OutputSchema()
	d.Discovered = discovered
	if g, ok := t.(Gated); ok {
		d.AllowedStates = g.AllowedStates()
	}
	return d, nil
}

// RegisterAll wires the whole catalog: workflow tools first, then the
// discovered artifact tools.
func RegisterAll(r Registrar, root string, wf Workflow) error {
	groups := []struct {
		tools      []Tool
		discovered bool
	}{
		{Workflows(wf), false},
		{Artifacts(root, wf), true},
	}
	for _, g := range groups {
		for _, t := range g.tools {
			d, err := Describe(t, g.discovered)
			if err != nil {
				return err
			}
			if err := r.Register(d); err != nil {
				return fmt.Errorf("registering %s: %w", d.Name, err)
			}
		}
	}
	return nil
}
