package tracing

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/funvibe/calltrace/internal/dispatch"
	"github.com/funvibe/calltrace/internal/evaluator"
)

// TracingAction wraps a CallAction. It binds exactly like the wrapped
// action and reports every successful dispatch to the registry's observer.
type TracingAction struct {
	inner    *dispatch.CallAction
	registry *Registry
}

// NewTracingAction wraps inner, reporting to registry.
func NewTracingAction(inner *dispatch.CallAction, registry *Registry) *TracingAction {
	return &TracingAction{inner: inner, registry: registry}
}

// Unwrap returns the wrapped action.
func (a *TracingAction) Unwrap() *dispatch.CallAction { return a.inner }

func (a *TracingAction) MethodName() string                { return a.inner.MethodName() }
func (a *TracingAction) Signature() dispatch.CallSignature { return a.inner.Signature() }

func (a *TracingAction) String() string { return a.inner.String() + "!" }

// Resolve delegates to the wrapped action and reports the completed call.
//
// The site and observer are read before delegating: the call may run
// method bodies whose own traced dispatches overwrite the thread's site.
// Failed dispatches are not reported.
func (a *TracingAction) Resolve(th *evaluator.Thread, receiver evaluator.Object, args []evaluator.Object) (evaluator.Object, error) {
	site := th.Site()
	obs := a.registry.Observer()

	result, err := a.inner.Resolve(th, receiver, args)
	if err != nil {
		return nil, err
	}
	if obs != nil {
		obs(receiver, args, result, site.Unit, site.Offset)
	}
	return result, nil
}

// Encode always fails: the call-site data of an instrumented graph has no
// stored form.
func (a *TracingAction) Encode() (*structpb.Struct, error) {
	return nil, fmt.Errorf("%w: cannot encode instrumented call site %s", ErrUnsupported, a)
}
