// Package sink delivers trace events produced by instrumented programs to
// their consumers: terminals, databases and remote collectors.
package sink

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Event is a rendered dispatch event. Values are rendered with Inspect at
// the moment the dispatch completes.
type Event struct {
	Session string
	Unit    int
	Offset  int

	// File, Line and Column locate the call when the unit is known to the
	// observer. Line is zero otherwise.
	File   string
	Line   int
	Column int

	Receiver string
	Args     []string
	Result   string
	Time     time.Time
}

// Sink consumes events. Implementations must be safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, ev Event) error
	Close() error
}

// NewSession returns a fresh session id.
func NewSession() string {
	return uuid.NewString()
}

// Multi fans events out to several sinks.
type Multi struct {
	sinks []Sink
}

// NewMulti returns a sink writing to every one of sinks.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Write delivers ev to every sink, even after one of them fails.
func (m *Multi) Write(ctx context.Context, ev Event) error {
	var result *multierror.Error
	for _, s := range m.sinks {
		if err := s.Write(ctx, ev); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Close closes every sink.
func (m *Multi) Close() error {
	var result *multierror.Error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Memory keeps events in memory.
type Memory struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (m *Memory) Write(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Events returns a copy of the events written so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
