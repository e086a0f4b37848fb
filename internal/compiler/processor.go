package compiler

import (
	"errors"

	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/internal/pipeline"
	"github.com/funvibe/calltrace/internal/token"
)

// CompileProcessor generates a plain, uninstrumented graph.
type CompileProcessor struct {
	Options Options
}

func (cp *CompileProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil {
		return ctx
	}
	lambda, err := Generate(ctx.AstRoot, ctx.Unit, cp.Options, nil)
	if err != nil {
		ReportError(ctx, err, diagnostics.ErrC004)
		return ctx
	}
	ctx.Graph = lambda
	return ctx
}

// ReportError records a compilation failure on ctx. Diagnostics are added
// as is; any other error is reported under code.
func ReportError(ctx *pipeline.PipelineContext, err error, code diagnostics.ErrorCode) {
	var errs Errors
	if errors.As(err, &errs) {
		for _, e := range errs {
			ctx.AddError(e)
		}
		return
	}
	ctx.AddError(diagnostics.NewError(code, token.Token{}, err.Error()))
}
