// Package calltrace is the embedding API: compile a source unit with every
// method call site instrumented, run it on a Thread, and receive one
// observer callback per completed call.
package calltrace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/funvibe/calltrace/internal/compiler"
	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/internal/evaluator"
	"github.com/funvibe/calltrace/internal/graph"
	"github.com/funvibe/calltrace/internal/lexer"
	"github.com/funvibe/calltrace/internal/parser"
	"github.com/funvibe/calltrace/internal/source"
	"github.com/funvibe/calltrace/internal/tracing"
)

type (
	// Object is a runtime value.
	Object = evaluator.Object
	// Thread holds the state of one execution. Use one per goroutine.
	Thread = evaluator.Thread
	// Observer is called after every traced call completes.
	Observer = tracing.Observer
	// Registry holds the observer instrumented programs report to.
	Registry = tracing.Registry
)

var (
	ErrInvalidArgument = tracing.ErrInvalidArgument
	ErrInternal        = tracing.ErrInternal
	ErrUnsupported     = tracing.ErrUnsupported
)

// Register makes obs the process-wide observer. It replaces any previous
// observer, including for calls already compiled.
func Register(obs Observer) error {
	return tracing.Register(obs)
}

// NewRegistry returns a registry for use with WithRegistry.
func NewRegistry() *Registry {
	return tracing.NewRegistry()
}

// NewThread returns a thread writing print output to stdout.
func NewThread(name string) *Thread {
	return evaluator.NewThread(name)
}

// Option configures Compile.
type Option func(*settings)

type settings struct {
	debug   bool
	globals map[string]interface{}
	tracing []tracing.Option
}

// Debug records statement positions so runtime errors carry a location.
func Debug(on bool) Option {
	return func(s *settings) { s.debug = on }
}

// Globals binds host values by name. Values go through ToObject; use
// NewObject for values with methods.
func Globals(values map[string]interface{}) Option {
	return func(s *settings) {
		if s.globals == nil {
			s.globals = make(map[string]interface{}, len(values))
		}
		for k, v := range values {
			s.globals[k] = v
		}
	}
}

// WithRegistry reports to r instead of the process-wide registry.
func WithRegistry(r *Registry) Option {
	return func(s *settings) { s.tracing = append(s.tracing, tracing.WithRegistry(r)) }
}

// Error carries the diagnostics of a failed compile.
type Error struct {
	unit        *source.Unit
	Diagnostics []*diagnostics.Error
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = d.Error()
	}
	return strings.Join(msgs, "\n")
}

// Render writes the diagnostics with source snippets.
func (e *Error) Render(w io.Writer, color bool) error {
	return diagnostics.Render(w, e.unit, e.Diagnostics, color)
}

// Program is an instrumented unit ready to run. It is immutable and may be
// run concurrently on distinct threads.
type Program struct {
	unit    *source.Unit
	unitID  int
	root    *graph.Lambda
	globals map[string]evaluator.Object
}

// Compile parses src and instruments every call site. Events from the
// program report unitID and byte offsets into src.
func Compile(path, src string, unitID int, opts ...Option) (*Program, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	unit, err := source.NewUnit(path, src, "")
	if err != nil {
		return nil, err
	}

	globals := make(map[string]evaluator.Object, len(s.globals))
	names := make([]string, 0, len(s.globals))
	for name, v := range s.globals {
		obj, err := ToObject(v)
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", name, err)
		}
		globals[name] = obj
		names = append(names, name)
	}
	sort.Strings(names)

	p := parser.New(lexer.New(src))
	program := p.ParseProgram()
	program.File = path
	if errs := p.Errors(); len(errs) > 0 {
		return nil, newError(unit, errs)
	}

	root, err := tracing.Transform(program, unit, compiler.Options{DebugMode: s.debug, Predeclared: names}, unitID, s.tracing...)
	if err != nil {
		var cerrs compiler.Errors
		if errors.As(err, &cerrs) {
			return nil, newError(unit, cerrs)
		}
		return nil, err
	}
	return &Program{unit: unit, unitID: unitID, root: root, globals: globals}, nil
}

func newError(unit *source.Unit, errs []*diagnostics.Error) *Error {
	for _, e := range errs {
		if e.File == "" {
			e.File = unit.Path
		}
	}
	return &Error{unit: unit, Diagnostics: errs}
}

// UnitID returns the id events from this program carry.
func (p *Program) UnitID() int { return p.unitID }

// Run executes the program on th with a fresh main object. A nil th gets
// a new thread. ctx interrupts loops once done; th.Context is restored
// when Run returns.
func (p *Program) Run(ctx context.Context, th *Thread) (Object, error) {
	if th == nil {
		th = NewThread(p.unit.Name())
	}
	if ctx != nil {
		prev := th.Context
		th.Context = ctx
		defer func() { th.Context = prev }()
	}
	return p.root.RunWith(th, evaluator.NewMainObject(), p.globals)
}

// Dump writes the instrumented graph.
func (p *Program) Dump(w io.Writer) error {
	return graph.Dump(w, p.root)
}
