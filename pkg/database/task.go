package database

import (
	"context"
	"sync"

	"github.com/agnosticeng/panicsafe"
)

// Task is a deferred result produced exactly once. Any number of goroutines
// may Await the same Task; all of them observe the same value and error.
// A Task is not cancellable: the context passed to Await only bounds how long
// that particular caller waits.
type Task[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func newTask[T any]() *Task[T] {
	return &Task[T]{done: make(chan struct{})}
}

// Completed returns a Task already resolved with val.
func Completed[T any](val T) *Task[T] {
	t := newTask[T]()
	t.complete(val, nil)
	return t
}

// Failed returns a Task already resolved with err.
func Failed[T any](err error) *Task[T] {
	t := newTask[T]()
	var zero T
	t.complete(zero, err)
	return t
}

// Go runs fn on a new goroutine. A panic inside fn resolves the Task with
// an error instead of crashing the process.
func Go[T any](fn func() (T, error)) *Task[T] {
	t := newTask[T]()
	go func() {
		var val T
		err := panicsafe.Recover(func() error {
			var err error
			val, err = fn()
			return err
		})
		t.complete(val, err)
	}()
	return t
}

// complete resolves the task; only the first call has an effect.
func (t *Task[T]) complete(val T, err error) bool {
	completed := false
	t.once.Do(func() {
		t.val = val
		t.err = err
		close(t.done)
		completed = true
	})
	return completed
}

// Done is closed once the result is available.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Await blocks until the task is resolved or ctx is done.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	default:
	}

	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait blocks until the task is resolved.
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.val, t.err
}
