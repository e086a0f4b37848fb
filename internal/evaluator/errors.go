package evaluator

import (
	"errors"
	"fmt"

	"github.com/funvibe/calltrace/internal/source"
)

// RuntimeError is raised by a running program.
type RuntimeError struct {
	Message string
	// Span locates the statement that failed, when known.
	Span    source.Span
	HasSpan bool
}

func (e *RuntimeError) Error() string {
	return "runtime error: " + e.Message
}

// Errorf creates a RuntimeError.
func Errorf(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

// NoMethodError builds the error raised when dispatch finds no method.
func NoMethodError(name string, recv Object) *RuntimeError {
	return Errorf("undefined method '%s' for %s", name, describe(recv))
}

// AttachSpan sets span on err if err is a RuntimeError without one.
func AttachSpan(err error, span source.Span) error {
	var re *RuntimeError
	if errors.As(err, &re) && !re.HasSpan {
		re.Span, re.HasSpan = span, true
	}
	return err
}

func describe(obj Object) string {
	if obj == nil {
		return "nil"
	}
	if inst, ok := obj.(*Instance); ok {
		return inst.Inspect()
	}
	return obj.Inspect() + ":" + obj.Class().Name
}
