// Package graph is the executable form of a compiled unit: a tree of typed
// nodes, shared subgraphs allowed, evaluated against a Thread and an
// Environment.
package graph

import (
	"fmt"

	"github.com/funvibe/calltrace/internal/evaluator"
)

// Type is the static result type of a node.
type Type int

const (
	TypeObject Type = iota
	TypeInteger
	TypeFloat
	TypeString
	TypeBoolean
	TypeNil
	TypeList
)

var typeNames = [...]string{
	TypeObject:  "Object",
	TypeInteger: "Integer",
	TypeFloat:   "Float",
	TypeString:  "String",
	TypeBoolean: "Boolean",
	TypeNil:     "Nil",
	TypeList:    "List",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Type(?)"
}

// TypeOf returns the static type describing obj.
func TypeOf(obj evaluator.Object) Type {
	switch obj.(type) {
	case *evaluator.Integer:
		return TypeInteger
	case *evaluator.Float:
		return TypeFloat
	case *evaluator.String:
		return TypeString
	case *evaluator.Boolean:
		return TypeBoolean
	case *evaluator.Nil:
		return TypeNil
	case *evaluator.List:
		return TypeList
	default:
		return TypeObject
	}
}

// Node is one vertex of an executable graph.
//
// Nodes are immutable once built and must be pointer types: identity is
// what Rewrite memoises on and what span tables key on.
type Node interface {
	Type() Type
	Eval(th *evaluator.Thread, env *evaluator.Environment) (evaluator.Object, error)
	// Children returns the direct operands in evaluation order.
	Children() []Node
	// WithChildren returns a new node of the same kind with its operands
	// replaced. It never modifies the receiver.
	WithChildren(children []Node) Node
	String() string
}

func unify(a, b Type) Type {
	if a == b {
		return a
	}
	return TypeObject
}

func evalAll(th *evaluator.Thread, env *evaluator.Environment, nodes []Node) ([]evaluator.Object, error) {
	vals := make([]evaluator.Object, len(nodes))
	for i, n := range nodes {
		v, err := n.Eval(th, env)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func mustArity(kind string, children []Node, n int) {
	if len(children) != n {
		panic(fmt.Sprintf("graph: %s takes %d children, got %d", kind, n, len(children)))
	}
}
