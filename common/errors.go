package common

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type ErrorCode int

const (
	// DuplicateObjectError indicates an attempt to create a table that already
	// exists in the catalog.
	DuplicateObjectError ErrorCode = iota
	// NoSuchObjectError indicates a request for a table or column that does
	// not exist in the catalog.
	NoSuchObjectError
	// MissingTraitError is returned when a trait set is queried for a trait
	// kind it was not built with. Callers may recover by falling back to the
	// kind's default.
	MissingTraitError
	// UnsupportedOperationError indicates that a node variant did not supply
	// an operation it was asked for, such as row type derivation.
	UnsupportedOperationError
	// MustOverrideCopyError is raised when a variant with inputs relies on the
	// fallback copy and asks for a node that differs from itself.
	MustOverrideCopyError
	// ValidationError indicates that a node entering the search space is
	// invalid, or that registration changed the row type of a subtree.
	ValidationError
	// PreconditionError indicates a defect in the caller: a rule or a
	// translator produced a node that cannot exist.
	PreconditionError
	// UnsupportedTypeError is returned by the host type factory for host types
	// that have no relational counterpart.
	UnsupportedTypeError
)

func (ec ErrorCode) String() string {
	switch ec {
	case DuplicateObjectError:
		return "DuplicateObjectError"
	case NoSuchObjectError:
		return "NoSuchObjectError"
	case MissingTraitError:
		return "MissingTraitError"
	case UnsupportedOperationError:
		return "UnsupportedOperationError"
	case MustOverrideCopyError:
		return "MustOverrideCopyError"
	case ValidationError:
		return "ValidationError"
	case PreconditionError:
		return "PreconditionError"
	case UnsupportedTypeError:
		return "UnsupportedTypeError"
	}
	return "unknown"
}

// Error is the custom error type for the optimizer core.
// It wraps a specific ErrorCode with a detailed message.
//
// Recoverable conditions are returned as plain Error values. Fatal conditions
// are raised with Fatalf, which wraps the Error as an assertion failure so that
// the code survives the trip through recover and errors.As.
type Error struct {
	Code      ErrorCode
	ErrString string
}

func (e Error) Error() string {
	return fmt.Sprintf("err: %s; msg: %s", e.Code.String(), e.ErrString)
}

// NewErrorf creates an Error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) Error {
	return Error{Code: code, ErrString: fmt.Sprintf(format, args...)}
}

// Fatalf panics with an assertion failure carrying the given code. It is used
// for conditions that indicate a logical inconsistency in the tree and must
// abort the current registration or rewrite.
func Fatalf(code ErrorCode, format string, args ...any) {
	panic(errors.WithAssertionFailure(NewErrorf(code, format, args...)))
}

// CodeOf returns the ErrorCode carried by err, looking through any wrapping.
func CodeOf(err error) (ErrorCode, bool) {
	var e Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// HasCode returns true if err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
