package backend

import (
	"errors"
	"io"

	"github.com/funvibe/calltrace/internal/evaluator"
	"github.com/funvibe/calltrace/internal/pipeline"
)

// GraphBackend evaluates the graph on a fresh Thread and main object.
type GraphBackend struct {
	// Out receives print output; nil means stdout.
	Out io.Writer
	// MaxDepth bounds nested calls; zero means the evaluator default.
	MaxDepth int
	// Predeclared values are bound as top-level locals.
	Predeclared map[string]evaluator.Object
}

func NewGraphBackend(out io.Writer) *GraphBackend {
	return &GraphBackend{Out: out}
}

func (b *GraphBackend) Name() string { return "graph" }

func (b *GraphBackend) Run(ctx *pipeline.PipelineContext) (evaluator.Object, error) {
	if ctx.Graph == nil {
		return nil, errors.New("no graph to run")
	}
	th := evaluator.NewThread(ctx.Unit.Name())
	if b.Out != nil {
		th.Out = b.Out
	}
	th.MaxDepth = b.MaxDepth
	th.Context = ctx.Context
	return ctx.Graph.RunWith(th, evaluator.NewMainObject(), b.Predeclared)
}
