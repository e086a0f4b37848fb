package tracing

import (
	"fmt"

	"github.com/funvibe/calltrace/internal/dispatch"
	"github.com/funvibe/calltrace/internal/graph"
)

// Injector rewrites a compiled graph so that its traceable dispatch sites
// report to a registry.
type Injector struct {
	spans  SpanTable
	unitID int
	opts   options

	wrapped int
}

// NewInjector returns an injector for a graph compiled from unit unitID
// whose dispatch spans are in spans.
func NewInjector(spans SpanTable, unitID int, opts ...Option) *Injector {
	return &Injector{spans: spans, unitID: unitID, opts: newOptions(opts)}
}

// Inject returns the instrumented graph. root is not modified. On error no
// graph is returned.
func (in *Injector) Inject(root graph.Node) (graph.Node, error) {
	in.wrapped = 0
	return graph.Rewrite(root, in.rewrite)
}

// Wrapped returns the number of sites instrumented by the last Inject.
func (in *Injector) Wrapped() int { return in.wrapped }

func (in *Injector) rewrite(orig, rebuilt graph.Node) (graph.Node, error) {
	node, ok := rebuilt.(*graph.Dynamic)
	if !ok {
		return rebuilt, nil
	}
	action, ok := node.Descriptor.(*dispatch.CallAction)
	if !ok {
		return rebuilt, nil
	}

	if len(node.Args) == 0 {
		return nil, fmt.Errorf("%w: dispatch %s has no arguments", ErrInternal, node)
	}
	// Spans are keyed by the node the compiler emitted, not its rebuilt copy.
	span, ok := in.spans.Lookup(orig.(*graph.Dynamic))
	if !ok {
		if in.opts.allowUnrecorded {
			return rebuilt, nil
		}
		return nil, fmt.Errorf("%w: no source span recorded for dispatch %s", ErrInternal, node)
	}

	args := append([]graph.Node(nil), node.Args...)
	last := len(args) - 1
	args[last] = &EnterSite{Operand: args[last], Unit: in.unitID, Offset: span.Start}

	in.wrapped++
	return graph.NewDynamic(NewTracingAction(action, in.opts.registry), node.ResultType, args...), nil
}
