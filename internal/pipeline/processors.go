package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/funvibe/funblocks/internal/catalog"
	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/env"
	"github.com/funvibe/funblocks/internal/graph"
)

// ErrNoCatalog is returned when neither a flag nor funblocks.yaml names a catalog.
var ErrNoCatalog = errors.New("no catalog configured")

// ConfigProcessor loads funblocks.yaml, or the defaults when there is none.
type ConfigProcessor struct{}

func (p *ConfigProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Failed() || ctx.Config != nil {
		return ctx
	}
	path := ctx.ConfigPath
	if path == "" {
		found, err := config.FindConfig(ctx.Dir)
		if err != nil {
			return ctx.fail(err)
		}
		path = found
	}
	if path == "" {
		ctx.Config = config.Default()
		return ctx
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return ctx.fail(err)
	}
	ctx.Config = cfg
	ctx.Logger.Debug("config loaded", "path", path)
	return ctx
}

// CatalogProcessor reads the catalog from YAML or SQLite.
type CatalogProcessor struct{}

func (p *CatalogProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Failed() || ctx.Catalog != nil {
		return ctx
	}
	path, sqlite := ctx.CatalogPath, isSQLitePath(ctx.CatalogPath)
	if path == "" && ctx.Config != nil {
		path, sqlite = ctx.Config.CatalogSource()
	}
	if path == "" {
		return ctx.fail(ErrNoCatalog)
	}

	var (
		c   *catalog.Catalog
		err error
	)
	if sqlite {
		c, err = catalog.LoadSQLite(ctx.Context, path)
	} else {
		c, err = catalog.LoadYAML(path)
	}
	if err != nil {
		return ctx.fail(err)
	}
	ctx.Catalog = c
	ctx.Logger.Info("catalog loaded", "source", path, "functions", c.Len(), "classes", len(c.Classes()))
	return ctx
}

func isSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// EnvironmentProcessor parses every catalog signature into an Environment.
type EnvironmentProcessor struct{}

func (p *EnvironmentProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Failed() || ctx.Catalog == nil {
		return ctx
	}
	e, err := env.New(ctx.Catalog)
	if err != nil {
		return ctx.fail(err)
	}
	ctx.Env = e
	return ctx
}

// WorkspaceProcessor builds the scenario's graph and propagates it once.
type WorkspaceProcessor struct {
	Options []graph.Option
}

func (p *WorkspaceProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Failed() || ctx.Env == nil || ctx.Scenario == nil {
		return ctx
	}
	opts := append([]graph.Option{graph.WithLogger(ctx.Logger)}, p.Options...)
	g := graph.New(ctx.Env, opts...)
	ids, err := buildWorkspace(g, ctx.Env, ctx.Scenario)
	if err != nil {
		return ctx.fail(err)
	}
	g.Commit()
	ctx.Graph = g
	ctx.Blocks = ids
	return ctx
}

func buildWorkspace(g *graph.Graph, e *env.Environment, s *Scenario) (map[string]graph.BlockID, error) {
	ids := make(map[string]graph.BlockID, len(s.Blocks))
	for _, b := range s.Blocks {
		container := g.Root()
		if b.In != "" {
			body, err := g.LambdaBody(ids[b.In])
			if err != nil {
				return nil, fmt.Errorf("block %s: %w", b.Name, err)
			}
			container = body
		}

		var (
			id  graph.BlockID
			err error
		)
		switch {
		case b.Value != "":
			t, perr := e.ParseType(b.Type)
			if perr != nil {
				return nil, fmt.Errorf("block %s: %w", b.Name, perr)
			}
			id, err = g.AddValue(container, t, b.Value)
		case b.Function != "":
			id, err = g.AddFunction(container, b.Function)
		case b.Lambda != nil:
			id, err = g.AddLambda(container, *b.Lambda)
		default:
			id, err = g.AddDisplay(container)
		}
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.Name, err)
		}
		ids[b.Name] = id
	}

	for _, c := range s.Connections {
		fromName, fromIdx, _ := splitEndpoint(c.From)
		toName, toIdx, _ := splitEndpoint(c.To)
		from := graph.OutputRef{Block: ids[fromName], Index: fromIdx}
		to := graph.InputRef{Block: ids[toName], Index: toIdx}
		if _, err := g.CreateConnection(from, to); err != nil {
			return nil, fmt.Errorf("connection %s -> %s: %w", c.From, c.To, err)
		}
	}
	return ids, nil
}

// ReportProcessor summarizes the propagated workspace.
type ReportProcessor struct{}

func (p *ReportProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Failed() || ctx.Graph == nil {
		return ctx
	}
	ctx.Report = BuildReport(ctx.Graph, ctx.Scenario, ctx.Blocks)
	ctx.Logger.Info("workspace checked",
		"workspace_id", ctx.Report.Workspace,
		"blocks", len(ctx.Report.Blocks),
		"invalid", ctx.Report.Invalid(),
	)
	return ctx
}
