package evaluator

import (
	"context"
	"io"
	"os"
)

// DefaultMaxDepth bounds nested method calls per thread.
const DefaultMaxDepth = 1000

// CallSite identifies a dispatch site: the unit that produced it and the
// byte offset of the call in that unit.
type CallSite struct {
	Unit   int
	Offset int
}

// Thread is the state of one execution of compiled code. A Thread must only
// be used by one goroutine at a time; concurrent executions each get their
// own.
type Thread struct {
	Name string
	// Out receives print output. Defaults to os.Stdout.
	Out io.Writer
	// MaxDepth limits nested method calls. Zero means DefaultMaxDepth.
	MaxDepth int
	// Context, when set, interrupts loops once it is done.
	Context context.Context

	depth int
	site  CallSite
}

// NewThread returns a thread writing to os.Stdout.
func NewThread(name string) *Thread {
	return &Thread{Name: name, Out: os.Stdout}
}

// EnterSite records the call site about to be dispatched on this thread.
func (th *Thread) EnterSite(site CallSite) {
	th.site = site
}

// Site returns the call site most recently recorded by EnterSite.
func (th *Thread) Site() CallSite {
	return th.site
}

// Depth returns the current method call nesting.
func (th *Thread) Depth() int { return th.depth }

// Push enters a method call frame.
func (th *Thread) Push() error {
	limit := th.MaxDepth
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	if th.depth >= limit {
		return Errorf("stack level too deep (%d)", th.depth)
	}
	th.depth++
	return nil
}

// Pop leaves a method call frame.
func (th *Thread) Pop() {
	if th.depth > 0 {
		th.depth--
	}
}

// Interrupted returns the context error once the thread's context is done.
func (th *Thread) Interrupted() error {
	if th.Context == nil {
		return nil
	}
	select {
	case <-th.Context.Done():
		return th.Context.Err()
	default:
		return nil
	}
}

func (th *Thread) out() io.Writer {
	if th.Out == nil {
		return os.Stdout
	}
	return th.Out
}
