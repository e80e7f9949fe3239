package fresco

import (
	"errors"
	"fmt"
)

// Class classifies errors by their recovery policy.
type Class string

const (
	// ClassParse indicates a malformed inbound payload. Recovered locally:
	// the message is dropped.
	ClassParse Class = "parse"

	// ClassPatch indicates a failed patch operation. Recovered
	// per-operation: remaining operations continue.
	ClassPatch Class = "patch"

	// ClassBinding indicates an unresolved binding. Recovered by omitting
	// the value from the resolved props.
	ClassBinding Class = "binding"

	// ClassPolicy indicates a disallowed or invalid component. Recovered
	// by dropping that node's subtree.
	ClassPolicy Class = "policy"

	// ClassContract indicates integration misuse, such as starting a run
	// before connecting. This is the only class expected to propagate to
	// the caller as a fatal failure.
	ClassContract Class = "contract"
)

// ClassifiedError is an error that reports its recovery class.
type ClassifiedError interface {
	error
	Class() Class
}

// Error is a classified error with an optional location.
type Error struct {
	Msg   string
	Cls   Class
	Path  string // JSON-Pointer-style location when applicable
	Cause error
}

// Error returns the error message.
func (e *Error) Error() string {
	msg := e.Msg
	if e.Path != "" {
		msg = fmt.Sprintf("%s at %q", e.Msg, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Class returns the error class.
func (e *Error) Class() Class {
	return e.Cls
}

// NewParseError creates a parse-class error.
func NewParseError(msg string, cause error) *Error {
	return &Error{Msg: msg, Cls: ClassParse, Cause: cause}
}

// NewPatchError creates a patch-class error located at path.
func NewPatchError(msg, path string, cause error) *Error {
	return &Error{Msg: msg, Cls: ClassPatch, Path: path, Cause: cause}
}

// NewBindingError creates a binding-class error located at path.
func NewBindingError(msg, path string) *Error {
	return &Error{Msg: msg, Cls: ClassBinding, Path: path}
}

// NewPolicyError creates a policy-class error.
func NewPolicyError(msg string) *Error {
	return &Error{Msg: msg, Cls: ClassPolicy}
}

// NewContractError creates a contract-class error.
func NewContractError(msg string) *Error {
	return &Error{Msg: msg, Cls: ClassContract}
}

// ClassOf returns the class of an error, or "" when the error carries
// none. It checks the error and anything it wraps.
func ClassOf(err error) Class {
	var ce ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class()
	}
	return ""
}

// IsParse reports whether the error is classified as a parse failure.
func IsParse(err error) bool { return ClassOf(err) == ClassParse }

// IsPatch reports whether the error is classified as a patch failure.
func IsPatch(err error) bool { return ClassOf(err) == ClassPatch }

// IsBinding reports whether the error is classified as a binding failure.
func IsBinding(err error) bool { return ClassOf(err) == ClassBinding }

// IsPolicy reports whether the error is classified as a policy failure.
func IsPolicy(err error) bool { return ClassOf(err) == ClassPolicy }

// IsContract reports whether the error is classified as contract misuse.
func IsContract(err error) bool { return ClassOf(err) == ClassContract }

// ErrorHandler receives recovered failures together with a short label
// naming where they were caught. Handlers must not panic. All engine
// failures flow through handlers; nothing in this module aborts the
// process.
type ErrorHandler func(err error, context string)
