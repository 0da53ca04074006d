package errx

import "errors"

// Error is the base error type for relaypush errors.
type Error struct {
	code        string
	description string
	message     string
	context     map[string]any
	cause       error
	base        error
	exitCode    int
}

// New creates a new Error with the provided code, description, and message.
func New(code, description, message string) *Error {
	return &Error{
		code:        code,
		description: description,
		message:     message,
	}
}

// Wrap creates a new Error and attaches a cause error.
func Wrap(code, description, message string, cause error) *Error {
	return &Error{
		code:        code,
		description: description,
		message:     message,
		cause:       cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.message != "":
		return e.message
	case e.description != "":
		return e.description
	case e.code != "":
		return e.code
	}
	return "error"
}

// Unwrap returns the cause. The base sentinel is matched through Is instead,
// so errors.As walks the causal chain only.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is reports whether target is the base sentinel or anything in the cause chain.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if e.base != nil && errors.Is(e.base, target) {
		return true
	}
	return errors.Is(e.cause, target)
}

// Code returns the stable error code.
func (e *Error) Code() string {
	if e == nil {
		return ""
	}
	return e.code
}

// Description returns the category description.
func (e *Error) Description() string {
	if e == nil {
		return ""
	}
	return e.description
}

// Message returns the user-facing message.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Context returns a copy of the structured context.
func (e *Error) Context() map[string]any {
	if e == nil || len(e.context) == 0 {
		return nil
	}
	return cloneContext(e.context)
}

// Cause returns the wrapped error, if any.
func (e *Error) Cause() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Base returns the sentinel base error, if any.
func (e *Error) Base() error {
	if e == nil {
		return nil
	}
	return e.base
}

// ExitCode returns the explicit process exit status, or 0 when none was set.
func (e *Error) ExitCode() int {
	if e == nil {
		return 0
	}
	return e.exitCode
}

// WithContext returns a copy of e with key set to value.
func (e *Error) WithContext(key string, value any) *Error {
	if e == nil {
		return nil
	}
	clone := e.clone()
	if clone.context == nil {
		clone.context = make(map[string]any)
	}
	clone.context[key] = value
	return clone
}

// WithContextMap returns a copy of e with ctx merged into its context.
// A copy is returned even when ctx is empty.
func (e *Error) WithContextMap(ctx map[string]any) *Error {
	if e == nil {
		return nil
	}
	clone := e.clone()
	if len(ctx) > 0 {
		if clone.context == nil {
			clone.context = make(map[string]any, len(ctx))
		}
		for key, value := range ctx {
			clone.context[key] = value
		}
	}
	return clone
}

// WithBase returns a copy of e whose sentinel base is base.
func (e *Error) WithBase(base error) *Error {
	if e == nil {
		return nil
	}
	clone := e.clone()
	clone.base = base
	return clone
}

// WithExitCode returns a copy of e that resolves to the given process exit status.
func (e *Error) WithExitCode(code int) *Error {
	if e == nil {
		return nil
	}
	clone := e.clone()
	clone.exitCode = code
	return clone
}

func (e *Error) clone() *Error {
	var ctx map[string]any
	if len(e.context) > 0 {
		ctx = cloneContext(e.context)
	}
	return &Error{
		code:        e.code,
		description: e.description,
		message:     e.message,
		cause:       e.cause,
		base:        e.base,
		exitCode:    e.exitCode,
		context:     ctx,
	}
}

func cloneContext(ctx map[string]any) map[string]any {
	clone := make(map[string]any, len(ctx))
	for key, value := range ctx {
		clone[key] = value
	}
	return clone
}
