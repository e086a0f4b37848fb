// Package dispatch resolves dynamic call sites against the receiver's
// class at run time.
package dispatch

import (
	"fmt"

	"github.com/funvibe/calltrace/internal/evaluator"
)

// Descriptor identifies what a dispatch node performs and knows how to
// resolve it. Descriptors are immutable.
type Descriptor interface {
	// Resolve performs the dispatch for receiver and args and returns the
	// result.
	Resolve(th *evaluator.Thread, receiver evaluator.Object, args []evaluator.Object) (evaluator.Object, error)
	String() string
}

// Shaped is implemented by descriptors that dispatch a named method with a
// static call shape.
type Shaped interface {
	MethodName() string
	Signature() CallSignature
}

// CallSignature is the static shape of a call site.
type CallSignature struct {
	// ArgumentCount excludes the receiver.
	ArgumentCount int
	// HasImplicitSelf is set for calls written without a receiver, which
	// may reach private methods.
	HasImplicitSelf bool
}

func (s CallSignature) String() string {
	if s.HasImplicitSelf {
		return fmt.Sprintf("argc=%d, implicit self", s.ArgumentCount)
	}
	return fmt.Sprintf("argc=%d", s.ArgumentCount)
}

// Equivalent reports whether a and b would bind identically.
func Equivalent(a, b Descriptor) bool {
	sa, ok := a.(Shaped)
	if !ok {
		return false
	}
	sb, ok := b.(Shaped)
	if !ok {
		return false
	}
	return sa.MethodName() == sb.MethodName() && sa.Signature() == sb.Signature()
}
