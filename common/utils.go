package common

import (
	"runtime"

	"github.com/cockroachdb/errors"
)

// Assert checks a condition and panics if it is false.
//
// Assertions guard invariants of the node model: truths about the tree that
// must always hold. Continuing after one is broken would silently corrupt the
// search space, so the panic is preferable to an error return.
//
// WHEN TO USE:
// - Checking for "impossible" conditions (e.g., switch default cases that shouldn't be reached).
// - Verifying internal data structure integrity (e.g., a cached row type is non-nil).
//
// WHEN NOT TO USE:
// - Conditions a caller may reasonably recover from, such as a missing trait (return an error instead).
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(errors.AssertionFailedf(format, args...))
	}
}

// ShouldCatch decides whether a recovered panic value is an optimizer error
// that can be turned into an error return. Values that are not errors (the go
// runtime throws strings for fatal internal problems) are not caught. Runtime
// errors such as nil dereferences are converted to assertion failures.
//
// Usage:
//
//	defer func() {
//		if r := recover(); r != nil {
//			ok, e := common.ShouldCatch(r)
//			if !ok {
//				panic(r)
//			}
//			err = e
//		}
//	}()
func ShouldCatch(r any) (bool, error) {
	err, ok := r.(error)
	if !ok {
		return false, nil
	}
	if errors.HasInterface(err, (*runtime.Error)(nil)) {
		return true, errors.HandleAsAssertionFailure(err)
	}
	return true, err
}

// Catch runs fn and converts an optimizer panic into an error.
func Catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, e := ShouldCatch(r)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	fn()
	return nil
}
