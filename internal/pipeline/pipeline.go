package pipeline

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Later stages skip themselves when an earlier one failed, so every
		// stage still sees the context and the first error is kept.
	}
	return ctx
}

// Startup is the standard stage sequence: configuration, catalog,
// environment, workspace and report.
func Startup() *Pipeline {
	return New(
		&ConfigProcessor{},
		&CatalogProcessor{},
		&EnvironmentProcessor{},
		&WorkspaceProcessor{},
		&ReportProcessor{},
	)
}
