package tracing

import "errors"

var (
	// ErrInvalidArgument reports API misuse, such as registering a nil
	// observer.
	ErrInvalidArgument = errors.New("tracing: invalid argument")

	// ErrInternal reports an inconsistency between the compiler and the
	// instrumentation, such as a dispatch node recorded twice.
	ErrInternal = errors.New("tracing: internal consistency fault")

	// ErrUnsupported is returned for operations instrumented graphs do not
	// support.
	ErrUnsupported = errors.New("tracing: unsupported operation")
)
