// Package diagnostics defines the coded errors reported to users by every
// stage of the pipeline.
package diagnostics

import (
	"fmt"

	"github.com/funvibe/calltrace/internal/source"
	"github.com/funvibe/calltrace/internal/token"
)

type ErrorCode string

const (
	// Parser
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // no prefix parse function
	ErrP003 ErrorCode = "P003" // invalid assignment target
	ErrP004 ErrorCode = "P004" // illegal token from the lexer
	ErrP005 ErrorCode = "P005" // nesting too deep

	// Code generation
	ErrC001 ErrorCode = "C001" // assignment to an undeclared variable
	ErrC002 ErrorCode = "C002" // duplicate parameter
	ErrC003 ErrorCode = "C003" // variable redeclared in the same scope
	ErrC004 ErrorCode = "C004" // internal code generation failure

	// Runtime
	ErrR001 ErrorCode = "R001"

	// Instrumentation
	ErrT001 ErrorCode = "T001"
)

var titles = map[ErrorCode]string{
	ErrP001: "Unexpected token",
	ErrP002: "Invalid expression",
	ErrP003: "Invalid assignment",
	ErrP004: "Invalid character",
	ErrP005: "Expression too complex",
	ErrC001: "Undeclared variable",
	ErrC002: "Duplicate parameter",
	ErrC003: "Redeclared variable",
	ErrC004: "Code generation failed",
	ErrR001: "Runtime error",
	ErrT001: "Instrumentation failed",
}

// Title returns a short human readable summary of the code.
func (c ErrorCode) Title() string {
	if t, ok := titles[c]; ok {
		return t
	}
	return "Error"
}

// Error is a diagnostic tied to an optional source location.
type Error struct {
	Code    ErrorCode
	File    string
	Span    source.Span
	Line    int
	Column  int
	Message string
}

// NewError builds a diagnostic located at tok.
func NewError(code ErrorCode, tok token.Token, message string) *Error {
	return &Error{
		Code:    code,
		Span:    source.Span{Start: tok.Offset, End: tok.End},
		Line:    tok.Line,
		Column:  tok.Column,
		Message: message,
	}
}

// NewSpanError builds a diagnostic covering span in unit.
func NewSpanError(code ErrorCode, unit *source.Unit, span source.Span, message string) *Error {
	e := &Error{Code: code, Span: span, Message: message}
	if unit != nil {
		pos := unit.Position(span.Start)
		e.File = unit.Path
		e.Line, e.Column = pos.Line, pos.Column
	}
	return e
}

func (e *Error) Error() string {
	loc := ""
	if e.File != "" {
		loc = e.File + ":"
	}
	if e.Line > 0 {
		loc += fmt.Sprintf("%d:%d: ", e.Line, e.Column)
	} else if loc != "" {
		loc += " "
	}
	return fmt.Sprintf("%s[%s] %s", loc, e.Code, e.Message)
}
