package graph

import (
	"fmt"
	"strings"

	"github.com/funvibe/calltrace/internal/evaluator"
	"github.com/funvibe/calltrace/internal/source"
)

// Constant yields a literal value.
type Constant struct {
	Value evaluator.Object
}

func (n *Constant) Type() Type { return TypeOf(n.Value) }
func (n *Constant) Eval(*evaluator.Thread, *evaluator.Environment) (evaluator.Object, error) {
	return n.Value, nil
}
func (n *Constant) Children() []Node                  { return nil }
func (n *Constant) WithChildren(children []Node) Node { mustArity("constant", children, 0); return n }
func (n *Constant) String() string                    { return "constant " + n.Value.Inspect() }

// Load reads a local variable.
type Load struct {
	Name string
}

func (n *Load) Type() Type { return TypeObject }
func (n *Load) Eval(_ *evaluator.Thread, env *evaluator.Environment) (evaluator.Object, error) {
	if v, ok := env.Get(n.Name); ok {
		return v, nil
	}
	return nil, evaluator.Errorf("undefined local variable '%s'", n.Name)
}
func (n *Load) Children() []Node                  { return nil }
func (n *Load) WithChildren(children []Node) Node { mustArity("load", children, 0); return n }
func (n *Load) String() string                    { return "load " + n.Name }

// Store writes a local variable. Declare binds it in the innermost scope;
// otherwise the nearest existing binding is updated.
type Store struct {
	Name    string
	Declare bool
	Value   Node
}

func (n *Store) Type() Type { return n.Value.Type() }
func (n *Store) Eval(th *evaluator.Thread, env *evaluator.Environment) (evaluator.Object, error) {
	v, err := n.Value.Eval(th, env)
	if err != nil {
		return nil, err
	}
	if n.Declare {
		env.Set(n.Name, v)
		return v, nil
	}
	if !env.Update(n.Name, v) {
		return nil, evaluator.Errorf("undefined local variable '%s'", n.Name)
	}
	return v, nil
}
func (n *Store) Children() []Node { return []Node{n.Value} }
func (n *Store) WithChildren(children []Node) Node {
	mustArity("store", children, 1)
	return &Store{Name: n.Name, Declare: n.Declare, Value: children[0]}
}
func (n *Store) String() string {
	if n.Declare {
		return "store " + n.Name + " (declare)"
	}
	return "store " + n.Name
}

// Block evaluates its body in order and yields the last value, or nil
// when empty. A scoped block gets a fresh enclosed environment.
type Block struct {
	Body   []Node
	Scoped bool
}

func (n *Block) Type() Type {
	if len(n.Body) == 0 {
		return TypeNil
	}
	return n.Body[len(n.Body)-1].Type()
}
func (n *Block) Eval(th *evaluator.Thread, env *evaluator.Environment) (evaluator.Object, error) {
	if n.Scoped {
		env = evaluator.NewEnclosedEnvironment(env)
	}
	var result evaluator.Object = evaluator.NIL
	for _, stmt := range n.Body {
		v, err := stmt.Eval(th, env)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}
func (n *Block) Children() []Node { return n.Body }
func (n *Block) WithChildren(children []Node) Node {
	mustArity("block", children, len(n.Body))
	return &Block{Body: append([]Node(nil), children...), Scoped: n.Scoped}
}
func (n *Block) String() string {
	if n.Scoped {
		return "block (scoped)"
	}
	return "block"
}

// Conditional picks IfTrue or IfFalse by the truthiness of Test.
type Conditional struct {
	Test, IfTrue, IfFalse Node
}

func (n *Conditional) Type() Type { return unify(n.IfTrue.Type(), n.IfFalse.Type()) }
func (n *Conditional) Eval(th *evaluator.Thread, env *evaluator.Environment) (evaluator.Object, error) {
	cond, err := n.Test.Eval(th, env)
	if err != nil {
		return nil, err
	}
	if evaluator.IsTruthy(cond) {
		return n.IfTrue.Eval(th, env)
	}
	return n.IfFalse.Eval(th, env)
}
func (n *Conditional) Children() []Node { return []Node{n.Test, n.IfTrue, n.IfFalse} }
func (n *Conditional) WithChildren(children []Node) Node {
	mustArity("conditional", children, 3)
	return &Conditional{Test: children[0], IfTrue: children[1], IfFalse: children[2]}
}
func (n *Conditional) String() string { return "conditional" }

// Loop evaluates Body while Test is truthy. It yields nil.
type Loop struct {
	Test, Body Node
}

func (n *Loop) Type() Type { return TypeNil }
func (n *Loop) Eval(th *evaluator.Thread, env *evaluator.Environment) (evaluator.Object, error) {
	for {
		if err := th.Interrupted(); err != nil {
			return nil, err
		}
		cond, err := n.Test.Eval(th, env)
		if err != nil {
			return nil, err
		}
		if !evaluator.IsTruthy(cond) {
			return evaluator.NIL, nil
		}
		if _, err := n.Body.Eval(th, env); err != nil {
			return nil, err
		}
	}
}
func (n *Loop) Children() []Node { return []Node{n.Test, n.Body} }
func (n *Loop) WithChildren(children []Node) Node {
	mustArity("loop", children, 2)
	return &Loop{Test: children[0], Body: children[1]}
}
func (n *Loop) String() string { return "loop" }

// LogicalOp selects short-circuit behaviour.
type LogicalOp int

const (
	AndAlso LogicalOp = iota
	OrElse
)

func (op LogicalOp) String() string {
	if op == AndAlso {
		return "&&"
	}
	return "||"
}

// Logical is a short-circuiting && or ||. It yields the deciding operand.
type Logical struct {
	Op          LogicalOp
	Left, Right Node
}

func (n *Logical) Type() Type { return unify(n.Left.Type(), n.Right.Type()) }
func (n *Logical) Eval(th *evaluator.Thread, env *evaluator.Environment) (evaluator.Object, error) {
	left, err := n.Left.Eval(th, env)
	if err != nil {
		return nil, err
	}
	if evaluator.IsTruthy(left) == (n.Op == OrElse) {
		return left, nil
	}
	return n.Right.Eval(th, env)
}
func (n *Logical) Children() []Node { return []Node{n.Left, n.Right} }
func (n *Logical) WithChildren(children []Node) Node {
	mustArity("logical", children, 2)
	return &Logical{Op: n.Op, Left: children[0], Right: children[1]}
}
func (n *Logical) String() string { return "logical " + n.Op.String() }

// ListInit builds a new list from its elements.
type ListInit struct {
	Elements []Node
}

func (n *ListInit) Type() Type { return TypeList }
func (n *ListInit) Eval(th *evaluator.Thread, env *evaluator.Environment) (evaluator.Object, error) {
	vals, err := evalAll(th, env, n.Elements)
	if err != nil {
		return nil, err
	}
	return evaluator.NewList(vals...), nil
}
func (n *ListInit) Children() []Node { return n.Elements }
func (n *ListInit) WithChildren(children []Node) Node {
	mustArity("list", children, len(n.Elements))
	return &ListInit{Elements: append([]Node(nil), children...)}
}
func (n *ListInit) String() string { return fmt.Sprintf("list (%d)", len(n.Elements)) }

// DefineMethod defines a method on the class of the current self. The
// method body runs in an environment enclosing the defining one, with self
// and the parameters bound.
type DefineMethod struct {
	Name   string
	Params []string
	Body   Node
}

func (n *DefineMethod) Type() Type { return TypeNil }
func (n *DefineMethod) Eval(_ *evaluator.Thread, env *evaluator.Environment) (evaluator.Object, error) {
	self, ok := env.Get(SelfName)
	if !ok {
		return nil, evaluator.Errorf("def %s outside of an object", n.Name)
	}
	body, params := n.Body, n.Params
	self.Class().Define(&evaluator.Method{
		Name:  n.Name,
		Arity: len(params),
		Fn: func(th *evaluator.Thread, recv evaluator.Object, args []evaluator.Object) (evaluator.Object, error) {
			local := evaluator.NewEnclosedEnvironment(env)
			local.Set(SelfName, recv)
			for i, p := range params {
				local.Set(p, args[i])
			}
			return body.Eval(th, local)
		},
	})
	return evaluator.NIL, nil
}
func (n *DefineMethod) Children() []Node { return []Node{n.Body} }
func (n *DefineMethod) WithChildren(children []Node) Node {
	mustArity("def", children, 1)
	return &DefineMethod{Name: n.Name, Params: n.Params, Body: children[0]}
}
func (n *DefineMethod) String() string {
	return fmt.Sprintf("def %s(%s)", n.Name, strings.Join(n.Params, ", "))
}

// DebugInfo attaches a source span to runtime errors raised below it.
type DebugInfo struct {
	Span source.Span
	Body Node
}

func (n *DebugInfo) Type() Type { return n.Body.Type() }
func (n *DebugInfo) Eval(th *evaluator.Thread, env *evaluator.Environment) (evaluator.Object, error) {
	v, err := n.Body.Eval(th, env)
	if err != nil {
		return nil, evaluator.AttachSpan(err, n.Span)
	}
	return v, nil
}
func (n *DebugInfo) Children() []Node { return []Node{n.Body} }
func (n *DebugInfo) WithChildren(children []Node) Node {
	mustArity("debug", children, 1)
	return &DebugInfo{Span: n.Span, Body: children[0]}
}
func (n *DebugInfo) String() string { return "debug " + n.Span.String() }
