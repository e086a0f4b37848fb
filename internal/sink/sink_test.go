package sink

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"github.com/funvibe/calltrace/internal/ctxlog"
	"github.com/funvibe/calltrace/internal/evaluator"
	"github.com/funvibe/calltrace/internal/source"
)

type failing struct{ closeErr error }

func (f *failing) Write(context.Context, Event) error { return errors.New("write failed") }
func (f *failing) Close() error                       { return f.closeErr }

func TestMultiDeliversDespiteFailures(t *testing.T) {
	mem := &Memory{}
	m := NewMulti(&failing{closeErr: errors.New("close failed")}, mem, &failing{})

	err := m.Write(context.Background(), Event{Unit: 1})
	if err == nil || !strings.Contains(err.Error(), "2 errors occurred") {
		t.Errorf("write error = %v", err)
	}
	if len(mem.Events()) != 1 {
		t.Errorf("healthy sink missed the event")
	}

	if err := m.Close(); err == nil || !strings.Contains(err.Error(), "close failed") {
		t.Errorf("close error = %v", err)
	}
	if !mem.Closed() {
		t.Errorf("memory sink not closed")
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	s := NewText(&buf)
	_ = s.Write(context.Background(), Event{Unit: 7, Offset: 42, Receiver: "widget", Args: []string{"1", `"b"`}, Result: "nil"})
	_ = s.Write(context.Background(), Event{File: "a.ct", Line: 3, Column: 5, Receiver: "1", Args: []string{"2"}, Result: "3"})

	want := "unit 7 @42 widget(1, \"b\") => nil\na.ct:3:5 1(2) => 3\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("text output mismatch (-want +got):\n%s", diff)
	}
}

func TestObserverRendersEvents(t *testing.T) {
	unit, err := source.NewUnit("main.ct", "let x = 1\nx + 2", "utf-8")
	if err != nil {
		t.Fatal(err)
	}
	mem := &Memory{}
	session := NewSession()
	if _, err := uuid.Parse(session); err != nil {
		t.Fatalf("session %q is not a uuid: %v", session, err)
	}

	obs := Observer(context.Background(), session, mem, map[int]*source.Unit{3: unit})
	obs(&evaluator.Integer{Value: 1}, []evaluator.Object{&evaluator.Integer{Value: 2}}, &evaluator.Integer{Value: 3}, 3, 10)
	obs(evaluator.NIL, nil, evaluator.TRUE, 4, 0)

	want := []Event{
		{Session: session, Unit: 3, Offset: 10, File: "main.ct", Line: 2, Column: 1, Receiver: "1", Args: []string{"2"}, Result: "3"},
		{Session: session, Unit: 4, Offset: 0, Receiver: "nil", Args: []string{}, Result: "true"},
	}
	if diff := cmp.Diff(want, mem.Events(), cmpopts.IgnoreFields(Event{}, "Time")); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestObserverLogsWriteFailures(t *testing.T) {
	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))
	obs := Observer(ctx, "s", &failing{}, nil)

	obs(evaluator.NIL, nil, evaluator.NIL, 1, 2)
	if !strings.Contains(logs.String(), "trace event dropped") || !strings.Contains(logs.String(), "write failed") {
		t.Errorf("log output %q", logs.String())
	}
}
