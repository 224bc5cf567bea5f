// Package future holds the result of background work so the editing
// goroutine can poll for it without blocking.
package future

import "context"

type Future[T any] struct {
	done  chan struct{}
	value T
}

// Go runs fn on a new goroutine and returns a future for its result.
func Go[T any](fn func() T) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		f.resolve(fn())
	}()
	return f
}

// Ready returns an already resolved future.
func Ready[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.resolve(v)
	return f
}

// Pending returns an unresolved future and the func that resolves it.
// Resolving more than once panics.
func Pending[T any]() (*Future[T], func(T)) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.resolve
}

func (f *Future[T]) resolve(v T) {
	f.value = v
	close(f.done)
}

// Ready reports whether the result is available. It never blocks.
func (f *Future[T]) Ready() bool {
	if f == nil {
		return false
	}
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get returns the result and whether it was ready.
func (f *Future[T]) Get() (T, bool) {
	var zero T
	if !f.Ready() {
		return zero, false
	}
	return f.value, true
}

// Wait blocks until the result is ready or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-f.done:
		return f.value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
