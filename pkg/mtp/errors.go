package mtp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a failure of the navigation or transfer engine.
type ErrorCode int

const (
	// CodeTransport wraps a failure reported by the driver, verbatim.
	CodeTransport ErrorCode = iota + 1

	// CodeNotFound indicates a path component had no matching child, or a
	// parent lookup did not yield an object.
	CodeNotFound

	// CodeAbsolutePath indicates the resolver was handed a rooted or
	// drive-prefixed path.
	CodeAbsolutePath

	// CodeAlreadyExists indicates the pre-flight duplicate check of a create
	// operation found an existing child.
	CodeAlreadyExists

	// CodeInvalidLocalSource indicates the local data of a push is missing or
	// unreadable.
	CodeInvalidLocalSource

	// CodeUnableToCreate indicates the driver accepted a create-with-data call
	// but returned no data handle.
	CodeUnableToCreate

	// CodeChangedConditions indicates a counted query returned a different
	// count on its second phase than promised on its first.
	CodeChangedConditions

	// CodeTypeMismatch indicates a property was absent or held a value of a
	// different type than requested.
	CodeTypeMismatch

	// CodeSessionClosed indicates the content handle was released.
	CodeSessionClosed

	// CodeInvalidName indicates an object name that is empty or is not a
	// single plain path segment.
	CodeInvalidName

	// CodeDeleted indicates the object value was consumed by Delete.
	CodeDeleted
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case CodeTransport:
		return "TransportError"
	case CodeNotFound:
		return "NotFound"
	case CodeAbsolutePath:
		return "AbsolutePath"
	case CodeAlreadyExists:
		return "AlreadyExists"
	case CodeInvalidLocalSource:
		return "InvalidLocalSource"
	case CodeUnableToCreate:
		return "UnableToCreate"
	case CodeChangedConditions:
		return "ChangedConditions"
	case CodeTypeMismatch:
		return "TypeMismatch"
	case CodeSessionClosed:
		return "SessionClosed"
	case CodeInvalidName:
		return "InvalidName"
	case CodeDeleted:
		return "Deleted"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

func (c ErrorCode) message() string {
	switch c {
	case CodeTransport:
		return "device call failed"
	case CodeNotFound:
		return "object not found"
	case CodeAbsolutePath:
		return "absolute paths are not supported"
	case CodeAlreadyExists:
		return "object already exists"
	case CodeInvalidLocalSource:
		return "invalid local source"
	case CodeUnableToCreate:
		return "device returned no data handle"
	case CodeChangedConditions:
		return "device state changed during a counted query"
	case CodeTypeMismatch:
		return "property type mismatch"
	case CodeSessionClosed:
		return "session closed"
	case CodeInvalidName:
		return "invalid object name"
	case CodeDeleted:
		return "object was deleted"
	default:
		return "unknown error"
	}
}

// Error is the error type returned by every operation of this package.
//
// Errors compare equal under errors.Is when their codes match, so callers
// test for a kind with the sentinel values below:
//
//	if errors.Is(err, mtp.ErrNotFound) { ... }
//
// Transport errors unwrap to the driver's original error.
type Error struct {
	Code     ErrorCode
	Op       string // operation that failed (resolve, create-folder, read...)
	ObjectID string // object the operation targeted, if any
	Path     string // path being resolved, if any
	Detail   string // extra context
	Err      error  // underlying cause
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		switch {
		case e.Path != "":
			fmt.Fprintf(&b, " %q", e.Path)
		case e.ObjectID != "":
			fmt.Fprintf(&b, " object %q", e.ObjectID)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Code.message())
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel values for errors.Is comparisons.
var (
	ErrTransport          = &Error{Code: CodeTransport}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrAbsolutePath       = &Error{Code: CodeAbsolutePath}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists}
	ErrInvalidLocalSource = &Error{Code: CodeInvalidLocalSource}
	ErrUnableToCreate     = &Error{Code: CodeUnableToCreate}
	ErrChangedConditions  = &Error{Code: CodeChangedConditions}
	ErrTypeMismatch       = &Error{Code: CodeTypeMismatch}
	ErrSessionClosed      = &Error{Code: CodeSessionClosed}
	ErrInvalidName        = &Error{Code: CodeInvalidName}
	ErrDeleted            = &Error{Code: CodeDeleted}
)

// CodeOf returns the code of the first *Error in err's chain, or 0.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsTransportError reports whether err originated in the driver.
func IsTransportError(err error) bool {
	return CodeOf(err) == CodeTransport
}

// transportError wraps a driver failure. Errors that already carry a code
// (a driver may report ErrSessionClosed, for instance) pass through.
func transportError(op, objectID string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Code: CodeTransport, Op: op, ObjectID: objectID, Err: err}
}

// withPath returns err annotated with the path being resolved. The *Error is
// copied since drivers may hand back package sentinels.
func withPath(err error, path string) error {
	e, ok := err.(*Error)
	if !ok || e.Code == CodeTransport || e.Path != "" {
		return err
	}
	c := *e
	c.Path = path
	return &c
}

// withObjectID returns a copy of err carrying the object ID it concerns.
func withObjectID(err error, id string) error {
	e, ok := err.(*Error)
	if !ok {
		return err
	}
	c := *e
	c.ObjectID = id
	return &c
}

func newError(code ErrorCode, op, objectID string) *Error {
	return &Error{Code: code, Op: op, ObjectID: objectID}
}
