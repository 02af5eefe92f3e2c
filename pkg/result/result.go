// Package result provides a tagged Ok/Err union used by the catalog layer so
// long chains of reads and validations compose without losing the original
// failure. An error result is always forwarded as-is: combinators never wrap
// or replace its error value.
package result

// Result holds either a value or an error, never both.
type Result[T any] struct {
	value T
	err   error
}

// Ok returns a successful result holding v.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err returns a failed result. A nil err is a programming error and panics.
func Err[T any](err error) Result[T] {
	if err == nil {
		panic("result: Err called with nil error")
	}
	return Result[T]{err: err}
}

// From adapts a (value, error) pair.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

// IsOk reports whether the result holds a value.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Value returns the held value, or the zero value on error.
func (r Result[T]) Value() T {
	return r.value
}

// Error returns the held error, or nil on success.
func (r Result[T]) Error() error {
	return r.err
}

// Get unpacks the result into Go's usual (value, error) pair.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// Forward re-types a failed result. It panics on an ok result.
func Forward[U, T any](r Result[T]) Result[U] {
	if r.err == nil {
		panic("result: Forward called on ok result")
	}
	return Result[U]{err: r.err}
}

// Map applies f to the value of an ok result.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return Ok(f(r.value))
}

// Then chains a fallible step onto an ok result.
func Then[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return f(r.value)
}

// Fold turns a slice of results into a result of a slice. The first failed
// result in slice order wins.
func Fold[T any](rs []Result[T]) Result[[]T] {
	values := make([]T, 0, len(rs))
	for _, r := range rs {
		if r.err != nil {
			return Result[[]T]{err: r.err}
		}
		values = append(values, r.value)
	}
	return Ok(values)
}
