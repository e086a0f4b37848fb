package ast

import (
	"bytes"
	"strings"

	"github.com/funvibe/calltrace/internal/source"
	"github.com/funvibe/calltrace/internal/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	String() string
	// Span returns the byte range of the node in its source unit.
	Span() source.Span
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
	GetToken() token.Token
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
}

// Program is the root node of every AST our parser produces.
type Program struct {
	File       string // Source file path
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for i, s := range p.Statements {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(s.String())
	}
	return out.String()
}

func (p *Program) Span() source.Span {
	if len(p.Statements) == 0 {
		return source.Span{}
	}
	return p.Statements[0].Span().Cover(p.Statements[len(p.Statements)-1].Span())
}

// LetStatement declares a variable in the current scope.
// let x = 1
type LetStatement struct {
	Token token.Token // The 'let' token
	Name  *Identifier
	Value Expression
	Range source.Span
}

func (ls *LetStatement) statementNode()        {}
func (ls *LetStatement) TokenLiteral() string  { return ls.Token.Lexeme }
func (ls *LetStatement) GetToken() token.Token { return ls.Token }
func (ls *LetStatement) Span() source.Span     { return ls.Range }
func (ls *LetStatement) String() string {
	return "let " + ls.Name.String() + " = " + exprString(ls.Value)
}

// DefStatement defines a method on self.
// def add(a, b) { a + b }
type DefStatement struct {
	Token      token.Token // The 'def' token
	Name       *Identifier
	Parameters []*Identifier
	Body       *BlockExpression
	Range      source.Span
}

func (ds *DefStatement) statementNode()        {}
func (ds *DefStatement) TokenLiteral() string  { return ds.Token.Lexeme }
func (ds *DefStatement) GetToken() token.Token { return ds.Token }
func (ds *DefStatement) Span() source.Span     { return ds.Range }
func (ds *DefStatement) String() string {
	params := make([]string, len(ds.Parameters))
	for i, p := range ds.Parameters {
		params[i] = p.String()
	}
	return "def " + ds.Name.String() + "(" + strings.Join(params, ", ") + ") " + ds.Body.String()
}

// ExpressionStatement wraps an expression used as a statement.
type ExpressionStatement struct {
	Token      token.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()        {}
func (es *ExpressionStatement) TokenLiteral() string  { return es.Token.Lexeme }
func (es *ExpressionStatement) GetToken() token.Token { return es.Token }
func (es *ExpressionStatement) Span() source.Span {
	if es.Expression == nil {
		return source.Span{Start: es.Token.Offset, End: es.Token.End}
	}
	return es.Expression.Span()
}
func (es *ExpressionStatement) String() string { return exprString(es.Expression) }

func exprString(e Expression) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

// TokenSpan returns the span of a single token.
func TokenSpan(tok token.Token) source.Span {
	return source.Span{Start: tok.Offset, End: tok.End}
}
