package compiler

import (
	"fmt"

	"github.com/funvibe/calltrace/internal/ast"
	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/internal/dispatch"
	"github.com/funvibe/calltrace/internal/evaluator"
	"github.com/funvibe/calltrace/internal/graph"
)

var prefixMethods = map[string]string{
	"-": "-@",
	"!": "!",
}

func (c *Compiler) compileExpression(expr ast.Expression) (graph.Node, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return &graph.Constant{Value: &evaluator.Integer{Value: e.Value}}, nil
	case *ast.FloatLiteral:
		return &graph.Constant{Value: &evaluator.Float{Value: e.Value}}, nil
	case *ast.StringLiteral:
		return &graph.Constant{Value: &evaluator.String{Value: e.Value}}, nil
	case *ast.BooleanLiteral:
		return &graph.Constant{Value: evaluator.NativeBoolToBooleanObject(e.Value)}, nil
	case *ast.NilLiteral:
		return &graph.Constant{Value: evaluator.NIL}, nil
	case *ast.SelfExpression:
		return &graph.Load{Name: graph.SelfName}, nil

	case *ast.Identifier:
		if c.resolveLocal(e.Value) {
			return &graph.Load{Name: e.Value}, nil
		}
		// A bare name that is not a local is a call on self: foo means self.foo().
		return c.emitCall(e, e.Value, dispatch.CallSignature{HasImplicitSelf: true}, &graph.Load{Name: graph.SelfName})

	case *ast.ListLiteral:
		elems, err := c.compileExpressions(e.Elements)
		if err != nil {
			return nil, err
		}
		return &graph.ListInit{Elements: elems}, nil

	case *ast.PrefixExpression:
		method, ok := prefixMethods[e.Operator]
		if !ok {
			return nil, fmt.Errorf("compiler: unknown prefix operator %q", e.Operator)
		}
		right, err := c.compileExpression(e.Right)
		if err != nil {
			return nil, err
		}
		return c.emitCall(e, method, dispatch.CallSignature{}, right)

	case *ast.InfixExpression:
		return c.compileInfixExpression(e)

	case *ast.GroupedExpression:
		return c.compileExpression(e.Inner)

	case *ast.AssignExpression:
		value, err := c.compileExpression(e.Value)
		if err != nil {
			return nil, err
		}
		if !c.resolveLocal(e.Name.Value) {
			c.addError(diagnostics.NewError(diagnostics.ErrC001, e.Name.Token,
				fmt.Sprintf("assignment to undeclared variable '%s'", e.Name.Value)))
		}
		return &graph.Store{Name: e.Name.Value, Value: value}, nil

	case *ast.IndexExpression:
		left, err := c.compileExpression(e.Left)
		if err != nil {
			return nil, err
		}
		index, err := c.compileExpression(e.Index)
		if err != nil {
			return nil, err
		}
		return c.emitCall(e, "[]", dispatch.CallSignature{ArgumentCount: 1}, left, index)

	case *ast.CallExpression:
		return c.compileCallExpression(e)

	case *ast.BlockExpression:
		return c.compileBlockExpression(e)

	case *ast.IfExpression:
		return c.compileIfExpression(e)

	case *ast.WhileExpression:
		test, err := c.compileExpression(e.Condition)
		if err != nil {
			return nil, err
		}
		body, err := c.compileBlockExpression(e.Body)
		if err != nil {
			return nil, err
		}
		return &graph.Loop{Test: test, Body: body}, nil

	default:
		return nil, fmt.Errorf("compiler: unsupported expression %T", expr)
	}
}

func (c *Compiler) compileExpressions(exprs []ast.Expression) ([]graph.Node, error) {
	nodes := make([]graph.Node, len(exprs))
	for i, e := range exprs {
		n, err := c.compileExpression(e)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}

func (c *Compiler) compileInfixExpression(e *ast.InfixExpression) (graph.Node, error) {
	left, err := c.compileExpression(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.compileExpression(e.Right)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "&&":
		return &graph.Logical{Op: graph.AndAlso, Left: left, Right: right}, nil
	case "||":
		return &graph.Logical{Op: graph.OrElse, Left: left, Right: right}, nil
	}
	return c.emitCall(e, e.Operator, dispatch.CallSignature{ArgumentCount: 1}, left, right)
}

func (c *Compiler) compileCallExpression(e *ast.CallExpression) (graph.Node, error) {
	sig := dispatch.CallSignature{ArgumentCount: len(e.Arguments)}

	var receiver graph.Node = &graph.Load{Name: graph.SelfName}
	if e.Receiver == nil {
		sig.HasImplicitSelf = true
	} else {
		r, err := c.compileExpression(e.Receiver)
		if err != nil {
			return nil, err
		}
		receiver = r
	}

	args, err := c.compileExpressions(e.Arguments)
	if err != nil {
		return nil, err
	}
	return c.emitCall(e, e.Method.Value, sig, append([]graph.Node{receiver}, args...)...)
}

func (c *Compiler) compileBlockExpression(b *ast.BlockExpression) (graph.Node, error) {
	c.beginScope()
	defer c.endScope()
	body, err := c.compileStatements(b.Statements)
	if err != nil {
		return nil, err
	}
	return &graph.Block{Body: body, Scoped: true}, nil
}

func (c *Compiler) compileIfExpression(e *ast.IfExpression) (graph.Node, error) {
	test, err := c.compileExpression(e.Condition)
	if err != nil {
		return nil, err
	}
	then, err := c.compileBlockExpression(e.Consequence)
	if err != nil {
		return nil, err
	}
	var alt graph.Node = &graph.Constant{Value: evaluator.NIL}
	if e.Alternative != nil {
		if alt, err = c.compileExpression(e.Alternative); err != nil {
			return nil, err
		}
	}
	return &graph.Conditional{Test: test, IfTrue: then, IfFalse: alt}, nil
}

// emitCall builds a dispatch node and reports it to the site tracer.
// args[0] is the receiver.
func (c *Compiler) emitCall(expr ast.Expression, method string, sig dispatch.CallSignature, args ...graph.Node) (graph.Node, error) {
	site := graph.NewDynamic(dispatch.NewCallAction(method, sig), graph.TypeObject, args...)
	if c.tracer != nil {
		if err := c.tracer.TraceCallSite(expr, site); err != nil {
			return nil, err
		}
	}
	return site, nil
}
