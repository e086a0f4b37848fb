package tracing

import (
	"fmt"

	"github.com/funvibe/calltrace/internal/ast"
	"github.com/funvibe/calltrace/internal/compiler"
	"github.com/funvibe/calltrace/internal/graph"
	"github.com/funvibe/calltrace/internal/source"
)

// Transform compiles program and instruments every dispatch site. Events
// from the resulting graph carry unitID and byte offsets into unit.
//
// Compile diagnostics are returned as compiler.Errors. Instrumentation
// failures wrap ErrInternal. Transform never returns a partial graph and is
// safe to call concurrently.
func Transform(program *ast.Program, unit *source.Unit, opts compiler.Options, unitID int, tracing ...Option) (*graph.Lambda, error) {
	spans := NewSpanRecorder()
	lambda, err := compiler.Generate(program, unit, opts, spans)
	if err != nil {
		return nil, err
	}

	out, err := NewInjector(spans, unitID, tracing...).Inject(lambda)
	if err != nil {
		return nil, fmt.Errorf("instrumenting %s: %w", unit.Name(), err)
	}
	root, ok := out.(*graph.Lambda)
	if !ok {
		return nil, fmt.Errorf("%w: instrumented root is %T", ErrInternal, out)
	}
	return root, nil
}
