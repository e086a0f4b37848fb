package backend

import (
	"context"
	"strings"
	"testing"

	"github.com/funvibe/calltrace/internal/compiler"
	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/internal/parser"
	"github.com/funvibe/calltrace/internal/pipeline"
	"github.com/funvibe/calltrace/internal/source"
)

func runPipeline(t *testing.T, input string, opts compiler.Options) (*pipeline.PipelineContext, string) {
	t.Helper()
	unit, err := source.NewUnit("test.ct", input, "utf-8")
	if err != nil {
		t.Fatal(err)
	}
	var out strings.Builder
	ctx := pipeline.New(
		&parser.ParserProcessor{},
		&compiler.CompileProcessor{Options: opts},
		NewExecutionProcessor(NewGraphBackend(&out)),
	).Run(pipeline.NewPipelineContext(context.Background(), unit, 1))
	return ctx, out.String()
}

func TestExecutionProcessor(t *testing.T) {
	ctx, out := runPipeline(t, "print(\"hello\")\n6 * 7", compiler.Options{})
	if ctx.Failed() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if out != "hello\n" || ctx.Result.Inspect() != "42" {
		t.Errorf("out=%q result=%s", out, ctx.Result.Inspect())
	}
}

func TestRuntimeErrorLocation(t *testing.T) {
	input := "let a = 1\na.nope"

	ctx, _ := runPipeline(t, input, compiler.Options{DebugMode: true})
	if len(ctx.Errors) != 1 {
		t.Fatalf("got %d errors", len(ctx.Errors))
	}
	err := ctx.Errors[0]
	if err.Code != diagnostics.ErrR001 || err.Line != 2 || err.Column != 1 {
		t.Errorf("got %s", err)
	}
	if err.Message != "undefined method 'nope' for 1:Integer" {
		t.Errorf("message %q", err.Message)
	}

	ctx, _ = runPipeline(t, input, compiler.Options{})
	if len(ctx.Errors) != 1 || ctx.Errors[0].Line != 0 {
		t.Errorf("without debug info the error has no location: %v", ctx.Errors)
	}
}

func TestStagesStopAfterErrors(t *testing.T) {
	ctx, out := runPipeline(t, "print(1)\ny = 2", compiler.Options{})
	if len(ctx.Errors) != 1 || ctx.Errors[0].Code != diagnostics.ErrC001 {
		t.Fatalf("errors: %v", ctx.Errors)
	}
	if out != "" || ctx.Result != nil {
		t.Errorf("program ran despite compile errors")
	}
}

func TestInterrupted(t *testing.T) {
	unit, _ := source.NewUnit("loop.ct", "while true { 1 }", "utf-8")
	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctx := pipeline.New(
		&parser.ParserProcessor{},
		&compiler.CompileProcessor{},
		NewExecutionProcessor(NewGraphBackend(nil)),
	).Run(pipeline.NewPipelineContext(cctx, unit, 1))
	if len(ctx.Errors) != 1 || !strings.Contains(ctx.Errors[0].Message, "context canceled") {
		t.Errorf("errors: %v", ctx.Errors)
	}
}
