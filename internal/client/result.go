package client

// Result is the outcome of a fetch that can legitimately find nothing.
//
// A source time-off lookup that returns an empty body means "no absences
// booked", which is different from a failed request or a body that does
// not decode. Result
// keeps the three cases apart so callers never have to infer them from an
// error value.
type Result[T any] struct {
	value T
	state resultState
	err   error
}

type resultState uint8

const (
	stateEmpty resultState = iota
	stateSome
	stateFailed
)

// Some wraps a value.
func Some[T any](v T) Result[T] {
	return Result[T]{value: v, state: stateSome}
}

// Empty is a successful fetch with nothing in it.
func Empty[T any]() Result[T] {
	return Result[T]{state: stateEmpty}
}

// Failed wraps the cause of a failed fetch.
func Failed[T any](err error) Result[T] {
	return Result[T]{state: stateFailed, err: err}
}

func (r Result[T]) IsSome() bool  { return r.state == stateSome }
func (r Result[T]) IsEmpty() bool { return r.state == stateEmpty }
func (r Result[T]) IsErr() bool   { return r.state == stateFailed }

// Value returns the wrapped value and whether there was one.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.state == stateSome
}

// Err returns the failure cause, or nil.
func (r Result[T]) Err() error {
	return r.err
}

// Listing is a paged read where individual pages may fail without failing
// the whole read. Failed pages are logged by the client and reported here
// so the run can count them.
type Listing[T any] struct {
	Items  []T
	Failed []error
}
