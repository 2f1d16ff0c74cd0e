package logging

import (
	"github.com/pkg/errors"
)

// Stacktrace is the field under which WithStacktrace logs the stack.
const Stacktrace = "stacktrace"

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// ExtractStack returns the outermost stack trace recorded by github.com/pkg/errors anywhere in the chain of err,
// or nil if there is none. Stores wrap driver errors with errors.WithStack, so this is usually the store call site.
func ExtractStack(err error) errors.StackTrace {
	for err != nil {
		if tracer, ok := err.(stackTracer); ok {
			return tracer.StackTrace()
		}
		err = errors.Unwrap(err)
	}
	return nil
}
