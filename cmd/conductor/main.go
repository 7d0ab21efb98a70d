// conductor: request-dispatch server for workflow-gated tools.
//
// Requests arrive as one JSON object per line on stdin and responses are
// written the same way to stdout. Logs go to stderr or a configured file.
//
// Usage:
//
//	conductor serve                        # Serve requests over stdio
//	conductor state show --output yaml     # Print the workflow document
//	conductor state transition ANALYSIS_COMPLETE
//	conductor state reset
//	conductor state mode standard
//	conductor version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/conductor/internal/workflow"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions are flags shared by every subcommand.
type rootOptions struct {
	project string
}

// projectRoot resolves --project, or walks up from the working directory.
func (o *rootOptions) projectRoot() (string, error) {
	if o.project != "" {
		return o.project, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return workflow.FindProjectRoot(wd), nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "conductor",
		Short:         "Workflow-gated tool dispatch over line-delimited JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.project, "project", "", "project root (default: nearest directory containing .conductor/)")

	root.AddCommand(
		newServeCmd(opts),
		newStateCmd(opts),
		newVersionCmd(),
	)
	return root
}
