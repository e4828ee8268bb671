package errors

import (
	"reflect"
)

// Is reports whether any error in err's chain matches target. The chain is
// followed through Cause() (pingcap/errors wrappers) and Unwrap().
func Is(err, target error) bool {
	if target == nil {
		return err == target
	}

	isComparable := reflect.TypeOf(target).Comparable()
	for {
		if isComparable && err == target {
			return true
		}
		if x, ok := err.(interface{ Is(error) bool }); ok && x.Is(target) {
			return true
		}
		if err = Cause(err); err == nil {
			return false
		}
	}
}

// Cause returns the error directly wrapped by err, or nil.
func Cause(err error) error {
	switch u := err.(type) {
	case interface{ Cause() error }:
		return u.Cause()
	case interface{ Unwrap() error }:
		return u.Unwrap()
	default:
		return nil
	}
}
