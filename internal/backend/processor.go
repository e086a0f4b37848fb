package backend

import (
	"errors"
	"strings"

	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/internal/evaluator"
	"github.com/funvibe/calltrace/internal/pipeline"
	"github.com/funvibe/calltrace/internal/token"
)

// ExecutionProcessor implements pipeline.Processor to run a Backend
type ExecutionProcessor struct {
	Backend Backend
}

// NewExecutionProcessor creates a new pipeline step for the given backend
func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.Graph == nil || ctx.Failed() {
		return ctx
	}

	result, err := p.Backend.Run(ctx)
	if err != nil {
		p.handleError(ctx, err)
		return ctx
	}
	ctx.Result = result
	return ctx
}

func (p *ExecutionProcessor) handleError(ctx *pipeline.PipelineContext, err error) {
	var re *evaluator.RuntimeError
	if errors.As(err, &re) && re.HasSpan {
		ctx.AddError(diagnostics.NewSpanError(diagnostics.ErrR001, ctx.Unit, re.Span, re.Message))
		return
	}

	// Location is missing unless the graph was compiled in debug mode.
	msg := strings.TrimPrefix(err.Error(), "runtime error: ")
	ctx.AddError(diagnostics.NewError(diagnostics.ErrR001, token.Token{}, msg))
}
