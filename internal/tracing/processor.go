package tracing

import (
	"github.com/funvibe/calltrace/internal/compiler"
	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/internal/pipeline"
)

// TransformProcessor is the pipeline stage producing an instrumented graph.
type TransformProcessor struct {
	Options compiler.Options
	Tracing []Option
}

func (tp *TransformProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil {
		return ctx
	}
	lambda, err := Transform(ctx.AstRoot, ctx.Unit, tp.Options, ctx.UnitID, tp.Tracing...)
	if err != nil {
		compiler.ReportError(ctx, err, diagnostics.ErrT001)
		return ctx
	}
	ctx.Graph = lambda
	return ctx
}
