package tracing

import (
	"sync"

	"github.com/funvibe/calltrace/internal/evaluator"
)

// Event is one observed dispatch.
type Event struct {
	Receiver evaluator.Object
	Args     []evaluator.Object
	Result   evaluator.Object
	Unit     int
	Offset   int
}

// Recorder keeps every event it observes.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Observe implements Observer.
func (r *Recorder) Observe(receiver evaluator.Object, args []evaluator.Object, result evaluator.Object, unitID, offset int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{
		Receiver: receiver,
		Args:     append([]evaluator.Object(nil), args...),
		Result:   result,
		Unit:     unitID,
		Offset:   offset,
	})
}

// Events returns a copy of the observed events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
