package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/funvibe/calltrace/internal/source"
	"github.com/funvibe/calltrace/internal/token"
)

type Identifier struct {
	Token token.Token // the token.IDENT token
	Value string
}

func (i *Identifier) expressionNode()       {}
func (i *Identifier) TokenLiteral() string  { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token { return i.Token }
func (i *Identifier) Span() source.Span     { return TokenSpan(i.Token) }
func (i *Identifier) String() string        { return i.Value }

// SelfExpression is the 'self' keyword.
type SelfExpression struct {
	Token token.Token
}

func (s *SelfExpression) expressionNode()       {}
func (s *SelfExpression) TokenLiteral() string  { return s.Token.Lexeme }
func (s *SelfExpression) GetToken() token.Token { return s.Token }
func (s *SelfExpression) Span() source.Span     { return TokenSpan(s.Token) }
func (s *SelfExpression) String() string        { return "self" }

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()       {}
func (il *IntegerLiteral) TokenLiteral() string  { return il.Token.Lexeme }
func (il *IntegerLiteral) GetToken() token.Token { return il.Token }
func (il *IntegerLiteral) Span() source.Span     { return TokenSpan(il.Token) }
func (il *IntegerLiteral) String() string        { return il.Token.Lexeme }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()       {}
func (fl *FloatLiteral) TokenLiteral() string  { return fl.Token.Lexeme }
func (fl *FloatLiteral) GetToken() token.Token { return fl.Token }
func (fl *FloatLiteral) Span() source.Span     { return TokenSpan(fl.Token) }
func (fl *FloatLiteral) String() string        { return fl.Token.Lexeme }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token { return sl.Token }
func (sl *StringLiteral) Span() source.Span     { return TokenSpan(sl.Token) }
func (sl *StringLiteral) String() string        { return strconv.Quote(sl.Value) }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) expressionNode()       {}
func (b *BooleanLiteral) TokenLiteral() string  { return b.Token.Lexeme }
func (b *BooleanLiteral) GetToken() token.Token { return b.Token }
func (b *BooleanLiteral) Span() source.Span     { return TokenSpan(b.Token) }
func (b *BooleanLiteral) String() string        { return b.Token.Lexeme }

type NilLiteral struct {
	Token token.Token
}

func (n *NilLiteral) expressionNode()       {}
func (n *NilLiteral) TokenLiteral() string  { return n.Token.Lexeme }
func (n *NilLiteral) GetToken() token.Token { return n.Token }
func (n *NilLiteral) Span() source.Span     { return TokenSpan(n.Token) }
func (n *NilLiteral) String() string        { return "nil" }

// ListLiteral represents [a, b, c].
type ListLiteral struct {
	Token    token.Token // the '[' token
	Elements []Expression
	Range    source.Span
}

func (ll *ListLiteral) expressionNode()       {}
func (ll *ListLiteral) TokenLiteral() string  { return ll.Token.Lexeme }
func (ll *ListLiteral) GetToken() token.Token { return ll.Token }
func (ll *ListLiteral) Span() source.Span     { return ll.Range }
func (ll *ListLiteral) String() string {
	return "[" + joinExprs(ll.Elements) + "]"
}

// PrefixExpression represents -x or !x.
type PrefixExpression struct {
	Token    token.Token // The prefix token, e.g. !
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()       {}
func (pe *PrefixExpression) TokenLiteral() string  { return pe.Token.Lexeme }
func (pe *PrefixExpression) GetToken() token.Token { return pe.Token }
func (pe *PrefixExpression) Span() source.Span {
	return TokenSpan(pe.Token).Cover(pe.Right.Span())
}
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + exprString(pe.Right) + ")"
}

// InfixExpression represents binary operators, including && and ||.
type InfixExpression struct {
	Token    token.Token // The operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()       {}
func (ie *InfixExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *InfixExpression) GetToken() token.Token { return ie.Token }
func (ie *InfixExpression) Span() source.Span {
	return ie.Left.Span().Cover(ie.Right.Span())
}
func (ie *InfixExpression) String() string {
	return "(" + exprString(ie.Left) + " " + ie.Operator + " " + exprString(ie.Right) + ")"
}

// GroupedExpression is a parenthesized expression. It keeps the parens in
// its span so a call on (a + b) starts at the '('.
type GroupedExpression struct {
	Token token.Token // The '(' token
	Inner Expression
	Range source.Span
}

func (ge *GroupedExpression) expressionNode()       {}
func (ge *GroupedExpression) TokenLiteral() string  { return ge.Token.Lexeme }
func (ge *GroupedExpression) GetToken() token.Token { return ge.Token }
func (ge *GroupedExpression) Span() source.Span     { return ge.Range }
func (ge *GroupedExpression) String() string        { return exprString(ge.Inner) }

// AssignExpression rebinds an existing variable.
// x = x + 1
type AssignExpression struct {
	Token token.Token // The '=' token
	Name  *Identifier
	Value Expression
}

func (ae *AssignExpression) expressionNode()       {}
func (ae *AssignExpression) TokenLiteral() string  { return ae.Token.Lexeme }
func (ae *AssignExpression) GetToken() token.Token { return ae.Token }
func (ae *AssignExpression) Span() source.Span {
	return ae.Name.Span().Cover(ae.Value.Span())
}
func (ae *AssignExpression) String() string {
	return ae.Name.String() + " = " + exprString(ae.Value)
}

// IndexExpression represents list[i].
type IndexExpression struct {
	Token token.Token // The '[' token
	Left  Expression
	Index Expression
	Range source.Span
}

func (ie *IndexExpression) expressionNode()       {}
func (ie *IndexExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *IndexExpression) GetToken() token.Token { return ie.Token }
func (ie *IndexExpression) Span() source.Span     { return ie.Range }
func (ie *IndexExpression) String() string {
	return "(" + exprString(ie.Left) + "[" + exprString(ie.Index) + "])"
}

// CallExpression is a method call. Receiver is nil for implicit-self
// calls such as print(x).
type CallExpression struct {
	Token     token.Token // The method name token
	Receiver  Expression
	Method    *Identifier
	Arguments []Expression
	Range     source.Span
}

func (ce *CallExpression) expressionNode()       {}
func (ce *CallExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *CallExpression) GetToken() token.Token { return ce.Token }
func (ce *CallExpression) Span() source.Span     { return ce.Range }
func (ce *CallExpression) String() string {
	var out bytes.Buffer
	if ce.Receiver != nil {
		out.WriteString(ce.Receiver.String())
		out.WriteString(".")
	}
	out.WriteString(ce.Method.String())
	out.WriteString("(")
	out.WriteString(joinExprs(ce.Arguments))
	out.WriteString(")")
	return out.String()
}

// BlockExpression is a braced statement list; its value is the value of
// the last statement.
type BlockExpression struct {
	Token      token.Token // the '{' token
	Statements []Statement
	Range      source.Span
}

func (be *BlockExpression) expressionNode()       {}
func (be *BlockExpression) TokenLiteral() string  { return be.Token.Lexeme }
func (be *BlockExpression) GetToken() token.Token { return be.Token }
func (be *BlockExpression) Span() source.Span     { return be.Range }
func (be *BlockExpression) String() string {
	parts := make([]string, len(be.Statements))
	for i, s := range be.Statements {
		parts[i] = s.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

// IfExpression: if cond { ... } else { ... }. Alternative is a
// *BlockExpression, an *IfExpression (else if) or nil.
type IfExpression struct {
	Token       token.Token // The 'if' token
	Condition   Expression
	Consequence *BlockExpression
	Alternative Expression
	Range       source.Span
}

func (ie *IfExpression) expressionNode()       {}
func (ie *IfExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *IfExpression) GetToken() token.Token { return ie.Token }
func (ie *IfExpression) Span() source.Span     { return ie.Range }
func (ie *IfExpression) String() string {
	out := "if " + exprString(ie.Condition) + " " + ie.Consequence.String()
	if ie.Alternative != nil {
		out += " else " + ie.Alternative.String()
	}
	return out
}

// WhileExpression loops while Condition is truthy and evaluates to nil.
type WhileExpression struct {
	Token     token.Token // The 'while' token
	Condition Expression
	Body      *BlockExpression
	Range     source.Span
}

func (we *WhileExpression) expressionNode()       {}
func (we *WhileExpression) TokenLiteral() string  { return we.Token.Lexeme }
func (we *WhileExpression) GetToken() token.Token { return we.Token }
func (we *WhileExpression) Span() source.Span     { return we.Range }
func (we *WhileExpression) String() string {
	return "while " + exprString(we.Condition) + " " + we.Body.String()
}

func joinExprs(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = exprString(e)
	}
	return strings.Join(parts, ", ")
}
