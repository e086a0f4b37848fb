package tracing

import (
	"fmt"

	"github.com/funvibe/calltrace/internal/evaluator"
	"github.com/funvibe/calltrace/internal/graph"
)

// EnterCallSite records (unit, offset) as the thread's current call site
// and returns value unchanged.
func EnterCallSite[T any](th *evaluator.Thread, value T, unit, offset int) T {
	th.EnterSite(evaluator.CallSite{Unit: unit, Offset: offset})
	return value
}

// EnterSite evaluates Operand, then records the call site on the thread.
// It yields the operand's value and has the operand's type.
type EnterSite struct {
	Operand graph.Node
	Unit    int
	Offset  int
}

func (n *EnterSite) Type() graph.Type { return n.Operand.Type() }

func (n *EnterSite) Eval(th *evaluator.Thread, env *evaluator.Environment) (evaluator.Object, error) {
	v, err := n.Operand.Eval(th, env)
	if err != nil {
		return nil, err
	}
	return EnterCallSite(th, v, n.Unit, n.Offset), nil
}

func (n *EnterSite) Children() []graph.Node { return []graph.Node{n.Operand} }

func (n *EnterSite) WithChildren(children []graph.Node) graph.Node {
	if len(children) != 1 {
		panic(fmt.Sprintf("tracing: enter-site takes 1 child, got %d", len(children)))
	}
	return &EnterSite{Operand: children[0], Unit: n.Unit, Offset: n.Offset}
}

func (n *EnterSite) String() string {
	return fmt.Sprintf("enter-site unit=%d offset=%d : %s", n.Unit, n.Offset, n.Type())
}
