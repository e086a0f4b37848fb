package parser

import (
	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/internal/lexer"
	"github.com/funvibe/calltrace/internal/pipeline"
	"github.com/funvibe/calltrace/internal/token"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Unit == nil {
		ctx.AddError(diagnostics.NewError(diagnostics.ErrP001, token.Token{}, "parser: no source unit"))
		return ctx
	}

	p := New(lexer.New(ctx.Unit.Text))
	program := p.ParseProgram()
	program.File = ctx.Unit.Path

	for _, err := range p.Errors() {
		ctx.AddError(err)
	}
	if !ctx.Failed() {
		ctx.AstRoot = program
	}
	return ctx
}
