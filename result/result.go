// Package result provides a success-or-failure container used throughout
// storekit in place of raised errors. A Result holds either a payload value
// or an error, never both; callers branch on the discriminant before
// touching either side.
package result

// Result combines a value of type T with an error behind an explicit
// ok discriminant. The zero value is a failure carrying a nil error;
// always build Results through Ok, Err or Of.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

// Ok creates a success wrapping the given payload.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Err creates a failure wrapping the given error.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Of wraps a conventional (value, error) return pair. A non-nil error wins:
// the value is discarded and a failure is returned.
func Of[T any](value T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(value)
}

// IsOk reports whether the result is a success.
func (r Result[T]) IsOk() bool { return r.ok }

// IsErr reports whether the result is a failure.
func (r Result[T]) IsErr() bool { return !r.ok }

// Value returns the payload. On a failure it returns the zero value of T;
// check the discriminant first, or use Get.
func (r Result[T]) Value() T { return r.value }

// Error returns the error. On a success it returns nil.
func (r Result[T]) Error() error { return r.err }

// Get returns the payload and the discriminant in one call.
func (r Result[T]) Get() (T, bool) { return r.value, r.ok }

// Unpack converts the result back into a conventional (value, error) pair.
func (r Result[T]) Unpack() (T, error) { return r.value, r.err }

// MapErr transforms the error on a failure. A success passes through
// unchanged.
func (r Result[T]) MapErr(fn func(error) error) Result[T] {
	if r.ok {
		return r
	}
	return Err[T](fn(r.err))
}

// Map applies a pure function to the payload of a success and rewraps it.
// A failure passes through unchanged, carrying the original error.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.ok {
		return Err[U](r.err)
	}
	return Ok(fn(r.value))
}

// FlatMap sequences two fallible operations: on a success the function is
// applied to the payload and its Result is returned as-is, with no double
// wrapping. On a failure the original error is propagated.
func FlatMap[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if !r.ok {
		return Err[U](r.err)
	}
	return fn(r.value)
}

// All collects the payloads of every result into a single success.
// It short-circuits on the first failure encountered, in order.
func All[T any](results []Result[T]) Result[[]T] {
	values := make([]T, 0, len(results))
	for _, r := range results {
		if !r.ok {
			return Err[[]T](r.err)
		}
		values = append(values, r.value)
	}
	return Ok(values)
}

// Unit is the payload of operations that succeed without producing a value,
// such as Repository.Delete.
type Unit struct{}

// OkUnit is shorthand for Ok(Unit{}).
func OkUnit() Result[Unit] { return Ok(Unit{}) }
