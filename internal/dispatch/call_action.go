package dispatch

import (
	"fmt"

	"github.com/funvibe/calltrace/internal/evaluator"
)

// CallAction dispatches a method call by name on the receiver's class.
type CallAction struct {
	method    string
	signature CallSignature
}

// NewCallAction returns the descriptor for calling method with signature.
func NewCallAction(method string, signature CallSignature) *CallAction {
	return &CallAction{method: method, signature: signature}
}

func (a *CallAction) MethodName() string       { return a.method }
func (a *CallAction) Signature() CallSignature { return a.signature }

func (a *CallAction) String() string {
	return fmt.Sprintf("call %s(%s)", a.method, a.signature)
}

// Resolve looks the method up on the receiver's class and invokes it.
func (a *CallAction) Resolve(th *evaluator.Thread, receiver evaluator.Object, args []evaluator.Object) (evaluator.Object, error) {
	if receiver == nil {
		receiver = evaluator.NIL
	}
	if len(args) != a.signature.ArgumentCount {
		return nil, fmt.Errorf("call site %s received %d arguments", a, len(args))
	}

	m, ok := receiver.Class().Lookup(a.method)
	if !ok {
		return nil, evaluator.NoMethodError(a.method, receiver)
	}
	if m.Private && !a.signature.HasImplicitSelf {
		return nil, evaluator.Errorf("private method '%s' called for %s", a.method, receiver.Inspect())
	}
	if m.Arity >= 0 && m.Arity != len(args) {
		return nil, evaluator.Errorf("wrong number of arguments for '%s' (given %d, expected %d)", a.method, len(args), m.Arity)
	}

	if err := th.Push(); err != nil {
		return nil, err
	}
	defer th.Pop()

	result, err := m.Fn(th, receiver, args)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = evaluator.NIL
	}
	return result, nil
}
