package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/calltrace/internal/tracestore"
)

const squareProgram = "def sq(x) { x * x }\nsq(3)\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), &out, &errOut, args)
	return out.String(), errOut.String(), err
}

func exitCode(err error) int {
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	return -1
}

func TestRunTracesToSinks(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "prog.ct", squareProgram)
	db := filepath.Join(dir, "trace.db")
	log := filepath.Join(dir, "trace.log")

	_, stderr, err := runCLI(t, "run", "-unit", "4", "-trace", "sqlite:"+db, "-trace", "text:"+log, src)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, stderr)
	}

	store, err := tracestore.Open(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	events, err := store.Query(context.Background(), tracestore.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, ev := range events {
		got = append(got, strings.Join([]string{ev.Receiver, strings.Join(ev.Args, ","), ev.Result}, " "))
		if ev.Unit != 4 {
			t.Errorf("event unit is %d, want 4", ev.Unit)
		}
	}
	if diff := cmp.Diff([]string{"3 3 9", "main 3 9"}, got); diff != "" {
		t.Errorf("stored events mismatch (-want +got):\n%s", diff)
	}
	if len(events) == 2 && (events[0].Offset != 12 || events[1].Offset != 20) {
		t.Errorf("offsets are %d and %d, want 12 and 20", events[0].Offset, events[1].Offset)
	}

	text, err := os.ReadFile(log)
	if err != nil {
		t.Fatal(err)
	}
	want := src + ":1:13 3(3) => 9\n" + src + ":2:1 main(3) => 9\n"
	if string(text) != want {
		t.Errorf("text trace:\ngot:  %q\nwant: %q", text, want)
	}

	out, _, err := runCLI(t, "query", "-db", db, "-limit", "1")
	if err != nil {
		t.Fatal(err)
	}
	if out != src+":1:13 3(3) => 9\n" {
		t.Errorf("query output: %q", out)
	}
}

func TestRunUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "prog.ct", "1 + 1\n")
	log := filepath.Join(dir, "events.log")
	writeFile(t, dir, "calltrace.yaml", "trace:\n  unit_id: 11\n  sinks:\n    - kind: text\n      path: "+log+"\n")

	if _, stderr, err := runCLI(t, "run", src); err != nil {
		t.Fatalf("run failed: %v\n%s", err, stderr)
	}
	text, err := os.ReadFile(log)
	if err != nil {
		t.Fatal(err)
	}
	if want := src + ":1:1 1(1) => 2\n"; string(text) != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestRunReportsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "bad.ct", "y = 1\n")

	_, stderr, err := runCLI(t, "run", "-trace", "text:"+filepath.Join(dir, "t.log"), src)
	if exitCode(err) != 1 {
		t.Fatalf("expected exit status 1, got %v", err)
	}
	if !strings.Contains(stderr, "C001") {
		t.Errorf("diagnostics do not mention C001:\n%s", stderr)
	}
}

func TestCompileAndExec(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "answer.ct", "def answer() { 6 * 7 }\nprint(answer)\n")
	compiled := filepath.Join(dir, "answer.ctc")

	out, _, err := runCLI(t, "compile", "-o", compiled, src)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "Compiled "+src+" -> "+compiled) {
		t.Errorf("unexpected compile output %q", out)
	}

	out, stderr, err := runCLI(t, "exec", compiled)
	if err != nil {
		t.Fatalf("exec failed: %v\n%s", err, stderr)
	}
	if out != "42\n" {
		t.Errorf("exec printed %q, want %q", out, "42\n")
	}

	if _, _, err := runCLI(t, "exec", src); err == nil {
		t.Error("exec accepted a source file")
	}
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "prog.ct", squareProgram)

	plain, _, err := runCLI(t, "dump", src)
	if err != nil {
		t.Fatal(err)
	}
	traced, _, err := runCLI(t, "dump", "-trace", src)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(plain, ")!") {
		t.Errorf("plain dump contains traced sites:\n%s", plain)
	}
	if got := strings.Count(traced, ")!"); got != 2 {
		t.Errorf("traced dump has %d traced sites, want 2:\n%s", got, traced)
	}
}

func TestServe(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "collector.db")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out, errOut bytes.Buffer
	if err := run(ctx, &out, &errOut, []string{"serve", "-addr", "127.0.0.1:0", "-db", db}); err != nil {
		t.Fatalf("serve: got err=%v, want nil\n%s", err, errOut.String())
	}
	if !strings.Contains(errOut.String(), "collector listening") || !strings.Contains(errOut.String(), "127.0.0.1:") {
		t.Errorf("serve log lacks the listen address:\n%s", errOut.String())
	}
	if _, err := os.Stat(db); err != nil {
		t.Errorf("database not created: %v", err)
	}

	_, _, err := runCLI(t, "serve", "-addr", "no-port", "-db", filepath.Join(dir, "other.db"))
	if err == nil || !strings.Contains(err.Error(), "listening on no-port") {
		t.Errorf("bad address: got err=%v, want a listen error", err)
	}
}

func TestUsage(t *testing.T) {
	if _, stderr, err := runCLI(t, "frobnicate"); exitCode(err) != 2 || !strings.Contains(stderr, "unknown command") {
		t.Errorf("unknown command: err=%v stderr=%q", err, stderr)
	}
	if _, _, err := runCLI(t); exitCode(err) != 2 {
		t.Errorf("no command: err=%v", err)
	}
	if _, _, err := runCLI(t, "run"); exitCode(err) != 2 {
		t.Errorf("run without a file: err=%v", err)
	}
	if out, _, err := runCLI(t, "help"); err != nil || !strings.Contains(out, "Commands:") {
		t.Errorf("help: err=%v out=%q", err, out)
	}
}
