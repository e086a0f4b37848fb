package calltrace_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/pkg/calltrace"
)

// Player is a Go value exposed to scripts through NewObject.
type Player struct {
	Name  string
	Score int
}

type callLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *callLog) observe(recv calltrace.Object, args []calltrace.Object, res calltrace.Object, unit, offset int) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Inspect()
	}
	l.mu.Lock()
	l.lines = append(l.lines, fmt.Sprintf("%d@%d %s(%s) => %s", unit, offset, recv.Inspect(), strings.Join(parts, ", "), res.Inspect()))
	l.mu.Unlock()
}

func (l *callLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

func TestEmbedAPI(t *testing.T) {
	user := &Player{Name: "Alice", Score: 10}
	player, err := calltrace.NewObject("player", map[string]interface{}{
		"add_score": func(points int) { user.Score += points },
		"status":    func() string { return fmt.Sprintf("%s has %d points", user.Name, user.Score) },
	})
	if err != nil {
		t.Fatal(err)
	}

	reg := calltrace.NewRegistry()
	log := &callLog{}
	if err := reg.Register(log.observe); err != nil {
		t.Fatal(err)
	}

	code := "player.add_score(bonus)\n[player.status, limits]"
	prog, err := calltrace.Compile("embed.ct", code, 3,
		calltrace.WithRegistry(reg),
		calltrace.Globals(map[string]interface{}{
			"player": player,
			"bonus":  uint8(5),
			"limits": []int{1, 2},
		}))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	res, err := prog.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got, err := calltrace.FromObject(res, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []interface{}{"Alice has 15 points", []interface{}{1, 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if user.Score != 15 {
		t.Errorf("Go struct not updated! Score is %d, expected 15", user.Score)
	}

	wantLog := []string{
		"3@0 player(5) => nil",
		`3@25 player() => "Alice has 15 points"`,
	}
	if diff := cmp.Diff(wantLog, log.Lines()); diff != "" {
		t.Errorf("observed calls mismatch (-want +got):\n%s", diff)
	}
}

func TestHostErrorBecomesRuntimeError(t *testing.T) {
	svc, err := calltrace.NewObject("svc", map[string]interface{}{
		"fail": func() (int, error) { return 0, errors.New("boom") },
	})
	if err != nil {
		t.Fatal(err)
	}
	reg := calltrace.NewRegistry()
	log := &callLog{}
	_ = reg.Register(log.observe)

	prog, err := calltrace.Compile("fail.ct", "svc.fail", 1,
		calltrace.WithRegistry(reg),
		calltrace.Globals(map[string]interface{}{"svc": svc}))
	if err != nil {
		t.Fatal(err)
	}
	_, err = prog.Run(context.Background(), calltrace.NewThread("t"))
	if err == nil || !strings.Contains(err.Error(), "fail: boom") {
		t.Fatalf("expected host error, got %v", err)
	}
	if lines := log.Lines(); len(lines) != 0 {
		t.Errorf("failed call was observed: %v", lines)
	}
}

func TestHostArgumentConversion(t *testing.T) {
	svc, err := calltrace.NewObject("svc", map[string]interface{}{
		"echo":  func(s string) string { return s },
		"count": func(n int) int { return n },
		"small": func(n int8) int { return int(n) },
		"ratio": func(f float64) float64 { return f },
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		input   string
		want    string
		wantErr string
	}{
		{input: `svc.echo("A")`, want: `"A"`},
		{input: "svc.count(65)", want: "65"},
		{input: "svc.small(-128)", want: "-128"},
		{input: "svc.ratio(3)", want: "3.0"},
		{input: "svc.echo(65)", wantErr: "echo: argument 1: cannot use int64 as string"},
		{input: "svc.count(2.9)", wantErr: "count: argument 1: cannot use float64 as int"},
		{input: "svc.small(300)", wantErr: "small: argument 1: 300 overflows int8"},
		{input: `svc.count("7")`, wantErr: "count: argument 1: cannot use string as int"},
	}
	for _, tt := range tests {
		prog, err := calltrace.Compile("conv.ct", tt.input, 1,
			calltrace.WithRegistry(calltrace.NewRegistry()),
			calltrace.Globals(map[string]interface{}{"svc": svc}))
		if err != nil {
			t.Fatalf("%s: %v", tt.input, err)
		}
		res, err := prog.Run(context.Background(), calltrace.NewThread("t"))
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("%s: got err=%v, want %q", tt.input, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.input, err)
			continue
		}
		if got := res.Inspect(); got != tt.want {
			t.Errorf("%s: got=%s, want=%s", tt.input, got, tt.want)
		}
	}
}

func TestRunRestoresThreadContext(t *testing.T) {
	prog, err := calltrace.Compile("ctx.ct", "1 + 1", 1, calltrace.WithRegistry(calltrace.NewRegistry()))
	if err != nil {
		t.Fatal(err)
	}
	type key struct{}
	own := context.WithValue(context.Background(), key{}, "own")
	th := calltrace.NewThread("t")
	th.Context = own

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := prog.Run(ctx, th); err != nil {
		t.Fatal(err)
	}
	if th.Context != own {
		t.Errorf("thread context not restored: got=%v, want=%v", th.Context, own)
	}
}

func TestNewObjectRejectsBadMethods(t *testing.T) {
	tests := []struct {
		name   string
		method interface{}
		want   error
	}{
		{"not a func", 42, calltrace.ErrInvalidArgument},
		{"variadic", func(xs ...int) int { return len(xs) }, calltrace.ErrUnsupported},
		{"two results", func() (int, int) { return 1, 2 }, calltrace.ErrUnsupported},
	}
	for _, tt := range tests {
		_, err := calltrace.NewObject("o", map[string]interface{}{"m": tt.method})
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		input string
		code  diagnostics.ErrorCode
	}{
		{"let x = ", diagnostics.ErrP002},
		{"y = 1", diagnostics.ErrC001},
		{"let x = 1\nlet x = 2", diagnostics.ErrC003},
	}
	for _, tt := range tests {
		_, err := calltrace.Compile("bad.ct", tt.input, 1)
		var cerr *calltrace.Error
		if !errors.As(err, &cerr) {
			t.Errorf("%q: expected *calltrace.Error, got %v", tt.input, err)
			continue
		}
		if cerr.Diagnostics[0].Code != tt.code {
			t.Errorf("%q: got code %s, want %s", tt.input, cerr.Diagnostics[0].Code, tt.code)
		}
		var buf bytes.Buffer
		if err := cerr.Render(&buf, false); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), string(tt.code)) {
			t.Errorf("%q: rendered diagnostics lack the code:\n%s", tt.input, buf.String())
		}
	}
}

func TestRunHonoursContext(t *testing.T) {
	prog, err := calltrace.Compile("loop.ct", "while true { 1 }", 1, calltrace.WithRegistry(calltrace.NewRegistry()))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := prog.Run(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProcessWideRegister(t *testing.T) {
	if err := calltrace.Register(nil); !errors.Is(err, calltrace.ErrInvalidArgument) {
		t.Fatalf("Register(nil): got %v, want ErrInvalidArgument", err)
	}

	log := &callLog{}
	if err := calltrace.Register(log.observe); err != nil {
		t.Fatal(err)
	}
	prog, err := calltrace.Compile("global.ct", "40 + 2", 9)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	th := calltrace.NewThread("main")
	th.Out = &out
	if _, err := prog.Run(context.Background(), th); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"9@0 40(2) => 42"}, log.Lines()); diff != "" {
		t.Errorf("observed calls mismatch (-want +got):\n%s", diff)
	}
}

func TestFromObjectTargets(t *testing.T) {
	list, err := calltrace.ToObject([]interface{}{1, 2.5, "x", true, nil})
	if err != nil {
		t.Fatal(err)
	}
	if got := list.Inspect(); got != `[1, 2.5, "x", true, nil]` {
		t.Errorf("Inspect: got %s", got)
	}

	ints, err := calltrace.ToObject([]int64{3, 4})
	if err != nil {
		t.Fatal(err)
	}
	got, err := calltrace.FromObject(ints, reflect.TypeOf([]int64(nil)))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{3, 4}, got); diff != "" {
		t.Errorf("[]int64 mismatch (-want +got):\n%s", diff)
	}

	neg, _ := calltrace.ToObject(-1)
	if _, err := calltrace.FromObject(neg, reflect.TypeOf(uint(0))); err == nil {
		t.Error("expected an error converting -1 to uint")
	}

	if _, err := calltrace.ToObject(uint64(math.MaxUint64)); !errors.Is(err, calltrace.ErrUnsupported) {
		t.Errorf("MaxUint64: got %v, want ErrUnsupported", err)
	}
	big, err := calltrace.ToObject(uint64(math.MaxInt64))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := big.Inspect(), "9223372036854775807"; got != want {
		t.Errorf("MaxInt64: got=%s, want=%s", got, want)
	}

	if _, err := calltrace.FromObject(ints, reflect.TypeOf([]int8(nil))); err != nil {
		t.Errorf("[]int8: %v", err)
	}
	wide, _ := calltrace.ToObject([]int{1, 1000})
	if _, err := calltrace.FromObject(wide, reflect.TypeOf([]int8(nil))); err == nil {
		t.Error("expected an error converting 1000 to int8")
	}

	if _, err := calltrace.ToObject(struct{}{}); !errors.Is(err, calltrace.ErrUnsupported) {
		t.Errorf("struct: got %v, want ErrUnsupported", err)
	}
}
