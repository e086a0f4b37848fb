// Package backend runs compiled graphs as the last pipeline stage.
package backend

import (
	"github.com/funvibe/calltrace/internal/evaluator"
	"github.com/funvibe/calltrace/internal/pipeline"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run executes the graph from the pipeline context and returns the result
	Run(ctx *pipeline.PipelineContext) (evaluator.Object, error)

	// Name returns the backend name for display
	Name() string
}
