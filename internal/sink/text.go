package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

const (
	ansiDim   = "\x1b[2m"
	ansiCyan  = "\x1b[36m"
	ansiGreen = "\x1b[32m"
	ansiReset = "\x1b[0m"
)

// Text writes one line per event.
type Text struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
	close func() error
}

// NewText writes to w. Colour is used when w is a terminal.
func NewText(w io.Writer) *Text {
	t := &Text{w: w}
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		t.color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return t
}

// OpenText appends to the file at path, or writes to stderr when path is
// empty.
func OpenText(path string) (*Text, error) {
	if path == "" {
		return NewText(os.Stderr), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	t := NewText(f)
	t.close = f.Close
	return t, nil
}

func (t *Text) Write(_ context.Context, ev Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, t.format(ev))
	return err
}

func (t *Text) Close() error {
	if t.close != nil {
		return t.close()
	}
	return nil
}

func (t *Text) paint(code, s string) string {
	if !t.color {
		return s
	}
	return code + s + ansiReset
}

func (t *Text) format(ev Event) string {
	loc := fmt.Sprintf("unit %d @%d", ev.Unit, ev.Offset)
	if ev.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", ev.File, ev.Line, ev.Column)
	}
	call := fmt.Sprintf("%s(%s)", ev.Receiver, strings.Join(ev.Args, ", "))
	return fmt.Sprintf("%s %s %s %s\n",
		t.paint(ansiDim, loc),
		t.paint(ansiCyan, call),
		t.paint(ansiDim, "=>"),
		t.paint(ansiGreen, ev.Result))
}
