package service

import (
	"fmt"
)

// Result is the outcome of one service operation: either a value or an error
// with an optional fallback value.
type Result[T any] struct {
	value T
	err   error
}

// Ok returns a successful result.
func Ok[T any](v T) Result[T] { return Result[T]{value: v} }

// Fail returns a failed result carrying fallback as its data.
func Fail[T any](err error, fallback T) Result[T] {
	if err == nil {
		err = ErrUnavailable
	}
	return Result[T]{value: fallback, err: err}
}

// Err returns a failed result with the zero value as fallback.
func Err[T any](err error) Result[T] {
	var zero T
	return Fail(err, zero)
}

// IsOk reports whether the operation succeeded.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Value returns the data, or the fallback of a failed result.
func (r Result[T]) Value() T { return r.value }

// Err returns the failure, or nil.
func (r Result[T]) Err() error { return r.err }

// Unwrap returns the value and the error, forcing callers to handle both.
func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }

// Guard runs fn and turns a panic into a failed result so no failure crosses
// the service boundary.
func Guard[T any](fn func() Result[T]) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			res = Err[T](fmt.Errorf("%w: %v", ErrUnavailable, p))
		}
	}()
	return fn()
}
