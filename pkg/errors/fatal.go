package errors

import (
	"fmt"
	"runtime"
)

// Classification is the two-valued tag consumed at every failure site.
// A Fatal result always means "stop catching, let it propagate": the
// worker re-raises the condition instead of absorbing it.
type Classification int

const (
	// Recoverable errors are handled locally: logged, dropped, retried
	// or backed off depending on the site.
	Recoverable Classification = iota

	// Fatal errors indicate the process state can no longer be trusted
	// (corrupted memory, exhausted runtime resources). They must never
	// be logged-and-swallowed.
	Fatal
)

// String returns the string representation of a classification
func (c Classification) String() string {
	if c == Fatal {
		return "fatal"
	}
	return "recoverable"
}

// FatalError marks an unrecoverable runtime condition. Panics recovered
// from the delivery worker are converted into a FatalError so the
// classifier sees them uniformly with explicit fatal constructions.
type FatalError struct {
	msg   string
	cause error
}

// NewFatalError creates a FatalError with the given message
func NewFatalError(msg string) *FatalError {
	return &FatalError{msg: msg}
}

// WrapFatal wraps an existing error as fatal
func WrapFatal(msg string, cause error) *FatalError {
	return &FatalError{msg: msg, cause: cause}
}

// FatalFromPanic converts a recovered panic value into a FatalError
func FatalFromPanic(v interface{}) *FatalError {
	if err, ok := v.(error); ok {
		return &FatalError{msg: "panic in delivery worker", cause: err}
	}
	return &FatalError{msg: fmt.Sprintf("panic in delivery worker: %v", v)}
}

// Error implements the error interface
func (e *FatalError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.cause.Error())
	}
	return e.msg
}

// Unwrap returns the underlying error
func (e *FatalError) Unwrap() error {
	return e.cause
}

// Classify is the pure predicate distinguishing unrecoverable runtime
// failures from everything else. It unwraps exactly one level of
// wrapping so a fatal cause inside a transport or ship error is still
// recognized.
func Classify(err error) Classification {
	if err == nil {
		return Recoverable
	}

	if isFatal(err) {
		return Fatal
	}

	// One level of unwrapping only: deeper chains are the wrapping
	// site's responsibility.
	if cause := unwrapOnce(err); cause != nil && isFatal(cause) {
		return Fatal
	}

	return Recoverable
}

// IsFatal reports whether Classify marks the error fatal
func IsFatal(err error) bool {
	return Classify(err) == Fatal
}

// isFatal checks a single error value without unwrapping
func isFatal(err error) bool {
	switch err.(type) {
	case *FatalError:
		return true
	case runtime.Error:
		// Nil dereferences, out-of-range slice access and similar
		// memory-safety violations recovered from panics.
		return true
	}

	if shipErr, ok := err.(ShipError); ok {
		return shipErr.Code() == CodeFatalRuntime
	}

	return false
}

// unwrapOnce returns the direct cause of err, if any
func unwrapOnce(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}
