package tracing

import (
	"fmt"
	"sync/atomic"

	"github.com/funvibe/calltrace/internal/evaluator"
)

// Observer receives one call per completed traced dispatch: the receiver,
// the arguments in call order, the result, and the unit and byte offset of
// the call site. Observers are called on the executing goroutine and must
// be safe for concurrent use when programs run on several threads.
type Observer func(receiver evaluator.Object, args []evaluator.Object, result evaluator.Object, unitID, offset int)

// Registry holds the active observer. Registering replaces the previous
// observer; there is no way to clear it.
type Registry struct {
	slot atomic.Pointer[Observer]
}

// NewRegistry returns a registry with no observer.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register makes obs the active observer.
func (r *Registry) Register(obs Observer) error {
	if obs == nil {
		return fmt.Errorf("%w: observer must not be nil", ErrInvalidArgument)
	}
	r.slot.Store(&obs)
	return nil
}

// Observer returns the active observer, or nil if none was registered.
func (r *Registry) Observer() Observer {
	if p := r.slot.Load(); p != nil {
		return *p
	}
	return nil
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register sets the observer of the process-wide registry.
func Register(obs Observer) error {
	return defaultRegistry.Register(obs)
}
