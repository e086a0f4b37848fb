package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/calltrace/internal/ast"
	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/internal/evaluator"
	"github.com/funvibe/calltrace/internal/graph"
	"github.com/funvibe/calltrace/internal/lexer"
	"github.com/funvibe/calltrace/internal/parser"
	"github.com/funvibe/calltrace/internal/source"
)

func compile(t *testing.T, input string, opts Options, tracer SiteTracer) (*graph.Lambda, *source.Unit) {
	t.Helper()
	unit, err := source.NewUnit("test.ct", input, "utf-8")
	if err != nil {
		t.Fatal(err)
	}
	p := parser.New(lexer.New(input))
	program := p.ParseProgram()
	for _, e := range p.Errors() {
		t.Fatalf("parser error: %s", e)
	}
	lambda, err := Generate(program, unit, opts, tracer)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return lambda, unit
}

func run(t *testing.T, input string) string {
	t.Helper()
	lambda, _ := compile(t, input, Options{}, nil)
	var out strings.Builder
	th := evaluator.NewThread("test")
	th.Out = &out
	res, err := lambda.Run(th, evaluator.NewMainObject())
	if err != nil {
		t.Fatalf("%q: %v", input, err)
	}
	return out.String() + res.Inspect()
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "7"},
		{"let x = 10; x = x - 1; x", "9"},
		{"(-5).abs", "5"},
		{"-5.abs", "-5"},
		{"!nil", "true"},
		{`"ab" * 2`, `"abab"`},
		{"[1, 2, 3][-1]", "3"},
		{"def add(a, b) { a + b }\nadd(40, 2)", "42"},
		{"def answer() { 42 }\nanswer", "42"},
		{"let n = 3\ndef scaled(v) { v * n }\nscaled(5)", "15"},
		{"let i = 0; let s = 0; while i < 4 { s = s + i; i = i + 1 }; s", "6"},
		{"if 1 > 2 { \"a\" } else if 2 > 1 { \"b\" } else { \"c\" }", `"b"`},
		{"if false { 1 }", "nil"},
		{"nil || 5", "5"},
		{"false && undefined_thing", "false"},
		{"let x = 1; { let x = 2; x }; x", "1"},
		{`print("hi", 1); 0`, "hi 1\n0"},
		{"def fact(n) { if n <= 1 { 1 } else { n * fact(n - 1) } }\nfact(10)", "3628800"},
	}
	for _, tt := range tests {
		if got := run(t, tt.input); got != tt.expected {
			t.Errorf("%q: got=%s, want=%s", tt.input, got, tt.expected)
		}
	}
}

type siteLog struct {
	sites map[*graph.Dynamic]ast.Expression
	calls int
	fail  error
}

func (l *siteLog) TraceCallSite(expr ast.Expression, site *graph.Dynamic) error {
	if l.fail != nil {
		return l.fail
	}
	if l.sites == nil {
		l.sites = make(map[*graph.Dynamic]ast.Expression)
	}
	l.calls++
	l.sites[site] = expr
	return nil
}

func TestTracerSeesEveryDispatchOnce(t *testing.T) {
	log := &siteLog{}
	lambda, unit := compile(t, "def f(a) { a.abs + 1 }\nlet xs = [f(-2), 3]\nxs[0] == xs.last", Options{DebugMode: true}, log)

	var emitted []*graph.Dynamic
	graph.Walk(lambda, func(n graph.Node) bool {
		if d, ok := n.(*graph.Dynamic); ok {
			emitted = append(emitted, d)
		}
		return true
	})
	if len(emitted) != log.calls || len(emitted) != len(log.sites) {
		t.Fatalf("emitted %d dispatch nodes, tracer called %d times for %d nodes", len(emitted), log.calls, len(log.sites))
	}
	for _, d := range emitted {
		expr, ok := log.sites[d]
		if !ok {
			t.Fatalf("%s was not reported", d)
		}
		if len(d.Args) == 0 {
			t.Errorf("%s has no receiver", d)
		}
		if expr.Span().Len() == 0 || unit.Slice(expr.Span()) == "" {
			t.Errorf("%s reported with empty span", d)
		}
	}
}

func TestTracerErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	p := parser.New(lexer.New("1 + 1"))
	_, err := Generate(p.ParseProgram(), nil, Options{}, &siteLog{fail: boom})
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		input string
		code  diagnostics.ErrorCode
	}{
		{"y = 1", diagnostics.ErrC001},
		{"def f(a, a) { a }", diagnostics.ErrC002},
		{"let x = 1; let x = 2", diagnostics.ErrC003},
	}
	for _, tt := range tests {
		p := parser.New(lexer.New(tt.input))
		_, err := Generate(p.ParseProgram(), nil, Options{}, nil)
		var errs Errors
		if !errors.As(err, &errs) || len(errs) != 1 {
			t.Fatalf("%q: expected one diagnostic, got %v", tt.input, err)
		}
		if errs[0].Code != tt.code {
			t.Errorf("%q: code=%s, want=%s", tt.input, errs[0].Code, tt.code)
		}
	}
}

func TestDebugModeLocatesRuntimeErrors(t *testing.T) {
	input := "let a = 1\nlet b = a / 0\n"
	lambda, unit := compile(t, input, Options{DebugMode: true}, nil)
	_, err := lambda.Run(evaluator.NewThread("test"), evaluator.NewMainObject())

	var re *evaluator.RuntimeError
	if !errors.As(err, &re) || !re.HasSpan {
		t.Fatalf("expected located runtime error, got %v", err)
	}
	if got := unit.Slice(re.Span); got != "let b = a / 0" {
		t.Errorf("error located at %q", got)
	}
}
