package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/funvibe/funblocks/internal/logging"
	"github.com/funvibe/funblocks/internal/pipeline"
)

type rootOptions struct {
	configPath  string
	catalogPath string
	logLevel    string
	logFormat   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "funblocks",
		Short: "Type-check block programs against a function catalog",
		Long: `funblocks loads a catalog of typed functions and checks block programs
built from it: every anchor gets an inferred type, blocks that do not
type-check in their container are flagged, and each block's program text
is extracted.

Configuration is read from funblocks.yaml, searched upwards from the
working directory, unless --config is given.

Examples:
  funblocks catalog --category List
  funblocks check scenario.yaml
  funblocks check scenario.yaml --catalog prelude.db --output json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to funblocks.yaml")
	flags.StringVar(&opts.catalogPath, "catalog", "", "catalog file (.yaml, or .db for SQLite); overrides the config")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error; overrides the config")
	flags.StringVar(&opts.logFormat, "log-format", "", "auto|text|json; overrides the config")

	cmd.AddCommand(newCatalogCmd(opts), newCheckCmd(opts), newVersionCmd())
	return cmd
}

// startup runs the startup pipeline. The logger is built as soon as the
// configuration is known so that later stages log through it.
func (o *rootOptions) startup(cmd *cobra.Command, scenario *pipeline.Scenario) (*pipeline.PipelineContext, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	ctx := pipeline.NewPipelineContext(cmd.Context(), dir)
	ctx.ConfigPath = o.configPath
	ctx.CatalogPath = o.catalogPath
	ctx.Scenario = scenario

	ctx = pipeline.New(&pipeline.ConfigProcessor{}).Run(ctx)
	if ctx.Failed() {
		return nil, ctx.Err()
	}
	logCfg := ctx.Config.Log
	if o.logLevel != "" {
		logCfg.Level = o.logLevel
	}
	if o.logFormat != "" {
		logCfg.Format = o.logFormat
	}
	ctx.Logger = logging.New(logCfg, cmd.ErrOrStderr())

	ctx = pipeline.Startup().Run(ctx)
	if ctx.Failed() {
		return nil, ctx.Err()
	}
	return ctx, nil
}
