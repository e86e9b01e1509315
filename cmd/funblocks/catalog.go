package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/funvibe/funblocks/internal/catalog"
	"github.com/funvibe/funblocks/internal/env"
	"github.com/funvibe/funblocks/internal/typesystem"
)

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the catalog's functions by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := opts.startup(cmd, nil)
			if err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), ctx.Env, category)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list this category")
	cmd.AddCommand(newCatalogExportCmd(opts))
	return cmd
}

func printCatalog(w io.Writer, e *env.Environment, only string) error {
	categories := e.Categories()
	if only != "" {
		if len(e.EntriesInCategory(only)) == 0 {
			return fmt.Errorf("unknown category %q", only)
		}
		categories = []string{only}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, cat := range categories {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\n", cat)
		for _, entry := range e.EntriesInCategory(cat) {
			sig := entry.Signature
			if s, ok := e.Lookup(entry.Name); ok {
				sig = typesystem.Pretty(s.Type)
			}
			fmt.Fprintf(tw, "  %s\t:: %s\t%s\n", entry.Name, sig, entry.Doc)
		}
	}
	return tw.Flush()
}

func newCatalogExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE.db",
		Short: "Write the loaded catalog to a new SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := args[0]
			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("%s already exists", out)
			}
			ctx, err := opts.startup(cmd, nil)
			if err != nil {
				return err
			}

			db, err := sql.Open("sqlite", out)
			if err != nil {
				return fmt.Errorf("opening %s: %w", out, err)
			}
			defer db.Close()
			if err := catalog.WriteSQL(cmd.Context(), db, ctx.Catalog); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d functions to %s\n", ctx.Catalog.Len(), out)
			return nil
		},
	}
}
