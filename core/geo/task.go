package geo

import "context"

// Task is a single-shot asynchronous operation yielding a value or an error.
// There is no cancellation: a result nobody waits for is dropped.
type Task[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn in its own goroutine.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.val, t.err = fn(ctx)
	}()
	return t
}

// Done is closed once the result is available.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Wait blocks until the result is available or ctx is done.
// A ctx error does not stop the operation itself.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
