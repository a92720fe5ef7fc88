package errors

import (
	"errors"
	"fmt"
)

// ErrorWrapper attaches a module, an operation and a message meant for
// people (CLI output, API error text) to errors from one call site.
//
//	wrap := domerrors.NewWrapper("campusctl", "publish")
//	return wrap.Wrapf(err, "Snapshot upload to %s failed", key)
type ErrorWrapper struct {
	module    string
	operation string
}

// NewWrapper returns a wrapper for module and operation.
func NewWrapper(module, operation string) *ErrorWrapper {
	return &ErrorWrapper{module: module, operation: operation}
}

// Wrap returns nil for a nil err.
func (w *ErrorWrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Module:      w.module,
		Operation:   w.operation,
		UserMessage: userMessage,
		Cause:       err,
	}
}

// Wrapf is Wrap with a formatted message.
func (w *ErrorWrapper) Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return w.Wrap(err, fmt.Sprintf(format, args...))
}

// WrappedError pairs an internal cause with its user-facing message.
type WrappedError struct {
	Module      string // e.g. "campusctl", "storage"
	Operation   string // e.g. "publish", "load_catalog"
	UserMessage string
	Cause       error
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("%s/%s: %s: %v", e.Module, e.Operation, e.UserMessage, e.Cause)
}

func (e *WrappedError) Unwrap() error { return e.Cause }

// GetUserMessage returns the message of the outermost WrappedError in
// err's chain, or err.Error() when there is none.
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var w *WrappedError
	if errors.As(err, &w) {
		return w.UserMessage
	}
	return err.Error()
}
