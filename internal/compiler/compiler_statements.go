package compiler

import (
	"fmt"

	"github.com/funvibe/calltrace/internal/ast"
	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/internal/graph"
)

func (c *Compiler) compileStatements(stmts []ast.Statement) ([]graph.Node, error) {
	nodes := make([]graph.Node, 0, len(stmts))
	for _, stmt := range stmts {
		n, err := c.compileStatement(stmt)
		if err != nil {
			return nil, err
		}
		if c.opts.DebugMode {
			n = &graph.DebugInfo{Span: stmt.Span(), Body: n}
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (c *Compiler) compileStatement(stmt ast.Statement) (graph.Node, error) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return c.compileExpression(s.Expression)

	case *ast.LetStatement:
		return c.compileLetStatement(s)

	case *ast.DefStatement:
		return c.compileDefStatement(s)

	default:
		return nil, fmt.Errorf("compiler: unsupported statement %T", stmt)
	}
}

func (c *Compiler) compileLetStatement(s *ast.LetStatement) (graph.Node, error) {
	// The initializer is compiled before the name is in scope.
	value, err := c.compileExpression(s.Value)
	if err != nil {
		return nil, err
	}
	if !c.declare(s.Name.Value) {
		c.addError(diagnostics.NewError(diagnostics.ErrC003, s.Name.Token,
			fmt.Sprintf("variable '%s' is already declared in this scope", s.Name.Value)))
	}
	return &graph.Store{Name: s.Name.Value, Declare: true, Value: value}, nil
}

func (c *Compiler) compileDefStatement(s *ast.DefStatement) (graph.Node, error) {
	c.beginScope()
	defer c.endScope()

	params := make([]string, len(s.Parameters))
	for i, p := range s.Parameters {
		if !c.declare(p.Value) {
			c.addError(diagnostics.NewError(diagnostics.ErrC002, p.Token,
				fmt.Sprintf("duplicate parameter '%s' in method '%s'", p.Value, s.Name.Value)))
		}
		params[i] = p.Value
	}

	// The method frame is the scope; the body block does not add another.
	body, err := c.compileStatements(s.Body.Statements)
	if err != nil {
		return nil, err
	}
	return &graph.DefineMethod{Name: s.Name.Value, Params: params, Body: &graph.Block{Body: body}}, nil
}
