package edit

import (
	"errors"
	"fmt"
)

// Error represents a programming error detected by the edit core.
//
// Errors fall into two families:
//   - Definition errors: undo/redo of a record that never got an inverse,
//     composites built from registered children, argument count mismatches.
//   - State errors: undo twice without a redo in between, redo without undo.
//
// Neither family is user-facing. They indicate a call site bug (a manager
// that forgot to attach an inverse, a UI that enabled undo at the wrong time)
// and never corrupt the log: the offending record is simply not committed.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Edit names the violating record or edit.
	Edit string

	// Details contains additional context (child index, counts).
	Details map[string]string

	// Err is the underlying error, if any.
	Err error
}

// ErrorCode categorizes edit errors.
type ErrorCode string

const (
	// ErrCodeUndefined indicates undo/redo of an edit with no inverse.
	ErrCodeUndefined ErrorCode = "UNDEFINED_EDIT"

	// ErrCodeAlreadyUndone indicates undo of an edit that is already undone.
	ErrCodeAlreadyUndone ErrorCode = "ALREADY_UNDONE"

	// ErrCodeNotUndone indicates redo of an edit that was never undone.
	ErrCodeNotUndone ErrorCode = "NOT_UNDONE"

	// ErrCodeRegistered indicates an edit that was registered or run on its
	// own being handed to a composite (or applied a second time).
	ErrCodeRegistered ErrorCode = "ALREADY_REGISTERED"

	// ErrCodeArgumentCount indicates a composite run with the wrong number
	// of argument bundles.
	ErrCodeArgumentCount ErrorCode = "ARGUMENT_COUNT"

	// ErrCodeChildFailed indicates a composite child failed mid-sequence.
	ErrCodeChildFailed ErrorCode = "CHILD_FAILED"

	// ErrCodeSealed indicates a change to a record whose scope has closed.
	ErrCodeSealed ErrorCode = "SEALED_EDIT"

	// ErrCodeDuplicateSubscriber indicates a subscriber id already in use.
	ErrCodeDuplicateSubscriber ErrorCode = "DUPLICATE_SUBSCRIBER"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Edit != "" {
		msg = fmt.Sprintf("%s (edit=%s)", msg, e.Edit)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is (or wraps) an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// IsDefinitionError returns true for errors caused by an incompletely or
// incorrectly defined edit.
func IsDefinitionError(err error) bool {
	var ee *Error
	if !errors.As(err, &ee) {
		return false
	}
	switch ee.Code {
	case ErrCodeUndefined, ErrCodeRegistered, ErrCodeArgumentCount, ErrCodeSealed:
		return true
	}
	return false
}

// IsStateError returns true for undo/redo called in the wrong state.
func IsStateError(err error) bool {
	var ee *Error
	if !errors.As(err, &ee) {
		return false
	}
	return ee.Code == ErrCodeAlreadyUndone || ee.Code == ErrCodeNotUndone
}

func newUndefinedError(name string) *Error {
	return &Error{
		Code:    ErrCodeUndefined,
		Message: "edit has not been fully defined",
		Edit:    name,
	}
}

func newNotRunError(name string) *Error {
	return &Error{
		Code:    ErrCodeUndefined,
		Message: "inverse attached before the forward action ran",
		Edit:    name,
	}
}

func newAlreadyUndoneError(name string) *Error {
	return &Error{
		Code:    ErrCodeAlreadyUndone,
		Message: "cannot undo edit: already undone",
		Edit:    name,
	}
}

func newNotUndoneError(name string) *Error {
	return &Error{
		Code:    ErrCodeNotUndone,
		Message: "cannot redo edit: has not been undone",
		Edit:    name,
	}
}

func newSealedError(name string) *Error {
	return &Error{
		Code:    ErrCodeSealed,
		Message: "registration scope already closed",
		Edit:    name,
	}
}
