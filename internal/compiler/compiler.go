// Package compiler generates the executable graph for a parsed unit.
package compiler

import (
	"strings"

	"github.com/funvibe/calltrace/internal/ast"
	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/internal/graph"
	"github.com/funvibe/calltrace/internal/source"
)

// Options control code generation.
type Options struct {
	// DebugMode wraps every statement in a DebugInfo node so runtime errors
	// carry the statement's span.
	DebugMode bool
	// Predeclared names are locals the host binds in the top-level
	// environment before running the unit.
	Predeclared []string
}

// SiteTracer is notified once for every dispatch node the compiler emits,
// at the moment it is emitted, with the expression that produced it. An
// error aborts compilation.
type SiteTracer interface {
	TraceCallSite(expr ast.Expression, site *graph.Dynamic) error
}

// Errors is the set of diagnostics that made compilation fail.
type Errors []*diagnostics.Error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// Compiler turns one program into a graph. It is not reusable.
type Compiler struct {
	unit   *source.Unit
	opts   Options
	tracer SiteTracer

	scopes []map[string]bool
	errors Errors
}

// New returns a compiler for unit. tracer may be nil.
func New(unit *source.Unit, opts Options, tracer SiteTracer) *Compiler {
	return &Compiler{unit: unit, opts: opts, tracer: tracer}
}

// Generate compiles program. Diagnostics are returned as Errors; a tracer
// failure is returned as is.
func Generate(program *ast.Program, unit *source.Unit, opts Options, tracer SiteTracer) (*graph.Lambda, error) {
	return New(unit, opts, tracer).Compile(program)
}

// Compile compiles program into its root lambda.
func (c *Compiler) Compile(program *ast.Program) (*graph.Lambda, error) {
	c.beginScope()
	for _, name := range c.opts.Predeclared {
		c.declare(name)
	}
	c.beginScope()
	body, err := c.compileStatements(program.Statements)
	c.endScope()
	c.endScope()
	if err != nil {
		return nil, err
	}
	if len(c.errors) > 0 {
		return nil, c.errors
	}

	name := program.File
	if c.unit != nil {
		name = c.unit.Name()
	}
	return &graph.Lambda{Name: name, Body: &graph.Block{Body: body}}, nil
}

func (c *Compiler) addError(err *diagnostics.Error) {
	if c.unit != nil {
		err.File = c.unit.Path
	}
	c.errors = append(c.errors, err)
}
