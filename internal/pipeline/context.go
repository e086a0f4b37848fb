package pipeline

import (
	"context"

	"github.com/funvibe/calltrace/internal/ast"
	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/internal/evaluator"
	"github.com/funvibe/calltrace/internal/graph"
	"github.com/funvibe/calltrace/internal/source"
)

// Processor is a single pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries the state shared between stages.
type PipelineContext struct {
	Context context.Context

	Unit    *source.Unit
	AstRoot *ast.Program
	Graph   *graph.Lambda

	// UnitID identifies the unit in trace events.
	UnitID int

	// Result is set by the execution stage.
	Result evaluator.Object

	Errors []*diagnostics.Error
}

// NewPipelineContext creates a context for unit.
func NewPipelineContext(ctx context.Context, unit *source.Unit, unitID int) *PipelineContext {
	return &PipelineContext{Context: ctx, Unit: unit, UnitID: unitID}
}

// Failed reports whether any stage recorded an error.
func (c *PipelineContext) Failed() bool {
	return len(c.Errors) > 0
}

// AddError records err, filling in the file from the unit.
func (c *PipelineContext) AddError(err *diagnostics.Error) {
	if err.File == "" && c.Unit != nil {
		err.File = c.Unit.Path
	}
	c.Errors = append(c.Errors, err)
}
