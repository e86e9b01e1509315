package pipeline

import (
	"context"
	"log/slog"

	"github.com/funvibe/funblocks/internal/catalog"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/env"
	"github.com/funvibe/funblocks/internal/graph"
	"github.com/funvibe/funblocks/internal/logging"
)

// PipelineContext carries the inputs and products of every stage.
type PipelineContext struct {
	Context context.Context
	Logger  *slog.Logger

	// Inputs
	ConfigPath  string // explicit config file; found from Dir when empty
	Dir         string // directory to search for funblocks.yaml
	CatalogPath string // overrides the configured catalog
	Scenario    *Scenario

	// Products
	Config  *config.Config
	Catalog *catalog.Catalog
	Env     *env.Environment
	Graph   *graph.Graph
	Blocks  map[string]graph.BlockID // scenario names
	Report  *Report

	Errors []error
}

// NewPipelineContext returns a context that searches for configuration from dir.
func NewPipelineContext(ctx context.Context, dir string) *PipelineContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &PipelineContext{
		Context: ctx,
		Logger:  logging.Discard(),
		Dir:     dir,
	}
}

// Failed reports whether any stage recorded an error.
func (c *PipelineContext) Failed() bool { return len(c.Errors) > 0 }

// Err returns the first recorded error.
func (c *PipelineContext) Err() error {
	if len(c.Errors) == 0 {
		return nil
	}
	return c.Errors[0]
}

func (c *PipelineContext) fail(err error) *PipelineContext {
	c.Errors = append(c.Errors, err)
	return c
}
