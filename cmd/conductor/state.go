package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/conductor/internal/workflow"
)

func newStateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or change the persisted workflow state",
	}
	cmd.AddCommand(
		newStateShowCmd(opts),
		newStateTransitionCmd(opts),
		newStateResetCmd(opts),
		newStateModeCmd(opts),
	)
	return cmd
}

func loadMachine(opts *rootOptions) (*workflow.Machine, error) {
	root, err := opts.projectRoot()
	if err != nil {
		return nil, err
	}
	return workflow.Load(workflow.StatePath(root))
}

func newStateShowCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the workflow document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMachine(opts)
			if err != nil {
				return err
			}
			return printDocument(cmd.OutOrStdout(), m.Snapshot(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func printDocument(w io.Writer, doc workflow.Document, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

func newStateTransitionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transition <state>",
		Short: "Move the workflow to another state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMachine(opts)
			if err != nil {
				return err
			}
			res, err := m.Transition(workflow.State(args[0]))
			if err != nil {
				return err
			}
			if !res.OK {
				return fmt.Errorf("%s", res.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", res.From, res.State)
			return nil
		},
	}
}

func newStateResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Return the workflow to INIT in quick mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMachine(opts)
			if err != nil {
				return err
			}
			if err := m.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "workflow reset to INIT")
			return nil
		},
	}
}

func newStateModeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mode <quick|standard>",
		Short: "Switch the workflow mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMachine(opts)
			if err != nil {
				return err
			}
			if err := m.SetMode(workflow.Mode(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mode set to %s\n", m.Mode())
			return nil
		},
	}
}
