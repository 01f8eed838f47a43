package metadata

import (
	"errors"
	"fmt"
)

// ErrorClass tags a parse failure so callers can decide whether the
// record is safely skippable or corrupt.
type ErrorClass string

const (
	// ClassMalformed marks a record that is corrupt and must be reported
	ClassMalformed ErrorClass = "malformed"

	// ClassUnsupportedSpec marks a record written against a newer schema
	// version than this client understands
	ClassUnsupportedSpec ErrorClass = "unsupported_spec"

	// ClassForwardCompatible marks a record using constructs reserved for
	// newer clients in a way that is safe to skip
	ClassForwardCompatible ErrorClass = "forward_compatible"
)

// ParseError is a classified metadata parse failure. It may wrap further
// causes from the underlying decoder.
type ParseError struct {
	Class  ErrorClass
	Record string
	msg    string
	cause  error
}

// NewParseError creates a ParseError with the given class and message
func NewParseError(class ErrorClass, record, msg string, cause error) *ParseError {
	return &ParseError{Class: class, Record: record, msg: msg, cause: cause}
}

func (e *ParseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Record, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Record, e.msg)
}

func (e *ParseError) Unwrap() error {
	return e.cause
}

// FindCause walks err's full cause chain, including multi-error wrappers,
// and returns the first error for which pred returns true, or nil.
func FindCause(err error, pred func(error) bool) error {
	if err == nil {
		return nil
	}
	if pred(err) {
		return err
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return FindCause(u.Unwrap(), pred)
	case interface{ Unwrap() []error }:
		for _, cause := range u.Unwrap() {
			if found := FindCause(cause, pred); found != nil {
				return found
			}
		}
	}
	return nil
}

// IsBenign reports whether any cause in err's chain is classified as
// safely skippable: a record from a newer client generation rather than
// a corrupt one.
func IsBenign(err error) bool {
	return FindCause(err, func(cause error) bool {
		var parseErr *ParseError
		if !errors.As(cause, &parseErr) {
			return false
		}
		return parseErr.Class == ClassUnsupportedSpec || parseErr.Class == ClassForwardCompatible
	}) != nil
}

// InnermostMessage returns the message of the deepest cause in err's
// chain, for error logs that should name the root problem.
func InnermostMessage(err error) string {
	msg := ""
	for err != nil {
		msg = err.Error()
		err = errors.Unwrap(err)
	}
	return msg
}
