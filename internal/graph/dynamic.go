package graph

import (
	"fmt"

	"github.com/funvibe/calltrace/internal/dispatch"
	"github.com/funvibe/calltrace/internal/evaluator"
)

// SelfName is the environment slot holding the current receiver.
const SelfName = "self"

// Dynamic is a dispatch site. Args[0] is the receiver; the rest are the
// call arguments. Every dispatch node has at least the receiver.
type Dynamic struct {
	Descriptor dispatch.Descriptor
	ResultType Type
	Args       []Node
}

// NewDynamic returns a dispatch node. The args slice is owned by the node.
func NewDynamic(desc dispatch.Descriptor, typ Type, args ...Node) *Dynamic {
	return &Dynamic{Descriptor: desc, ResultType: typ, Args: args}
}

func (n *Dynamic) Type() Type { return n.ResultType }

// Eval evaluates the operands left to right, then resolves the call.
func (n *Dynamic) Eval(th *evaluator.Thread, env *evaluator.Environment) (evaluator.Object, error) {
	if len(n.Args) == 0 {
		return nil, fmt.Errorf("graph: dispatch %s has no receiver", n.Descriptor)
	}
	vals, err := evalAll(th, env, n.Args)
	if err != nil {
		return nil, err
	}
	return n.Descriptor.Resolve(th, vals[0], vals[1:])
}

func (n *Dynamic) Children() []Node { return n.Args }

func (n *Dynamic) WithChildren(children []Node) Node {
	mustArity("dynamic", children, len(n.Args))
	return NewDynamic(n.Descriptor, n.ResultType, append([]Node(nil), children...)...)
}

func (n *Dynamic) String() string {
	return fmt.Sprintf("dynamic %s : %s", n.Descriptor, n.ResultType)
}

// Lambda is the root of a compiled unit.
type Lambda struct {
	Name string
	Body Node
}

func (n *Lambda) Type() Type { return n.Body.Type() }
func (n *Lambda) Eval(th *evaluator.Thread, env *evaluator.Environment) (evaluator.Object, error) {
	return n.Body.Eval(th, env)
}
func (n *Lambda) Children() []Node { return []Node{n.Body} }
func (n *Lambda) WithChildren(children []Node) Node {
	mustArity("lambda", children, 1)
	return &Lambda{Name: n.Name, Body: children[0]}
}
func (n *Lambda) String() string { return fmt.Sprintf("lambda %s : %s", n.Name, n.Type()) }

// Run evaluates the unit on th in a fresh top-level environment with self
// bound.
func (n *Lambda) Run(th *evaluator.Thread, self evaluator.Object) (evaluator.Object, error) {
	return n.RunWith(th, self, nil)
}

// RunWith is Run with the host's predeclared values bound as locals.
func (n *Lambda) RunWith(th *evaluator.Thread, self evaluator.Object, predeclared map[string]evaluator.Object) (evaluator.Object, error) {
	env := evaluator.NewEnvironment()
	for name, v := range predeclared {
		env.Set(name, v)
	}
	env.Set(SelfName, self)
	return n.Eval(th, evaluator.NewEnclosedEnvironment(env))
}
