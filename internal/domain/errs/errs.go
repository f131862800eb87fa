package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure surfaced by the scan-result core
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindConstraintViolation Kind = "constraint_violation"
	KindStorageUnavailable  Kind = "storage_unavailable"
	KindTimeout             Kind = "timeout"
)

// Sentinels for errors.Is matching by kind
var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrConstraintViolation = &Error{Kind: KindConstraintViolation}
	ErrStorageUnavailable  = &Error{Kind: KindStorageUnavailable}
	ErrTimeout             = &Error{Kind: KindTimeout}
)

// Error is a classified failure with the operation that produced it
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// E builds a classified error. A nil err yields a message-less error of the given kind.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string
func Errorf(kind Kind, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// KindOf returns the kind of the outermost classified error in the chain,
// or an empty kind when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Retryable reports whether the caller may retry with the same inputs
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindStorageUnavailable, KindTimeout:
		return true
	default:
		return false
	}
}

// NotFound, Constraint, Unavailable and Timeout are shorthands for E.
func NotFound(op string, format string, args ...interface{}) error {
	return Errorf(KindNotFound, op, format, args...)
}

func Constraint(op string, format string, args ...interface{}) error {
	return Errorf(KindConstraintViolation, op, format, args...)
}

func Unavailable(op string, err error) error {
	return E(KindStorageUnavailable, op, err)
}

func Timeout(op string, err error) error {
	return E(KindTimeout, op, err)
}
