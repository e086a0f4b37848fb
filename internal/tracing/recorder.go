package tracing

import (
	"fmt"

	"github.com/funvibe/calltrace/internal/ast"
	"github.com/funvibe/calltrace/internal/graph"
	"github.com/funvibe/calltrace/internal/source"
)

// SpanTable maps dispatch nodes to the source span they were compiled from.
type SpanTable interface {
	Lookup(site *graph.Dynamic) (source.Span, bool)
}

// SpanRecorder collects the span of every dispatch node the compiler
// emits. It is keyed by node identity and lives for one compilation.
type SpanRecorder struct {
	spans map[*graph.Dynamic]source.Span
}

func NewSpanRecorder() *SpanRecorder {
	return &SpanRecorder{spans: make(map[*graph.Dynamic]source.Span)}
}

// Record stores span for site. A node may be recorded only once.
func (r *SpanRecorder) Record(site *graph.Dynamic, span source.Span) error {
	if _, dup := r.spans[site]; dup {
		return fmt.Errorf("%w: dispatch %s recorded twice", ErrInternal, site)
	}
	r.spans[site] = span
	return nil
}

// TraceCallSite implements compiler.SiteTracer.
func (r *SpanRecorder) TraceCallSite(expr ast.Expression, site *graph.Dynamic) error {
	return r.Record(site, expr.Span())
}

func (r *SpanRecorder) Lookup(site *graph.Dynamic) (source.Span, bool) {
	span, ok := r.spans[site]
	return span, ok
}

// Len returns the number of recorded nodes.
func (r *SpanRecorder) Len() int { return len(r.spans) }
