package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/funblocks/internal/logging"
	"github.com/funvibe/funblocks/internal/pipeline"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var (
		output string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "check SCENARIO",
		Short: "Build a workspace from a scenario and report types and validity",
		Long: `Build the blocks and connections described in a scenario file, run
propagation once, and print every block's anchor types, validity and
program text.

Examples:
  funblocks check square.yaml
  funblocks check square.yaml --output yaml
  funblocks check broken.yaml --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := pipeline.LoadScenario(args[0])
			if err != nil {
				return err
			}
			ctx, err := opts.startup(cmd, s)
			if err != nil {
				return err
			}
			if err := writeReport(cmd.OutOrStdout(), ctx.Report, output); err != nil {
				return err
			}
			if n := ctx.Report.Invalid(); strict && n > 0 {
				return fmt.Errorf("%d invalid blocks", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "text|yaml|json")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any block is invalid")
	return cmd
}

func writeReport(w io.Writer, r *pipeline.Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		writeText(w, r)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, r *pipeline.Report) {
	color := logging.IsTerminal(w)
	fmt.Fprintf(w, "workspace %s\n", r.Workspace)
	for _, b := range r.Blocks {
		status := "ok"
		if !b.Valid {
			status = "INVALID"
			if color {
				status = "\x1b[31m" + status + "\x1b[0m"
			}
		}
		fmt.Fprintf(w, "%s (%s #%d) %s\n", b.Name, b.Kind, b.ID, status)
		if len(b.Inputs) > 0 {
			fmt.Fprintf(w, "  inputs:  %s\n", strings.Join(b.Inputs, ", "))
		}
		if len(b.Outputs) > 0 {
			fmt.Fprintf(w, "  outputs: %s\n", strings.Join(b.Outputs, ", "))
		}
		for _, e := range b.Errors {
			fmt.Fprintf(w, "  error:   %s\n", e)
		}
		fmt.Fprintf(w, "  program: %s\n", b.Program)
	}
}
