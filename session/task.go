package session

import "context"

// Task is the pending result of work spawned by the session. Callers may
// wait on it or drop it; the work runs to completion either way.
type Task struct {
	done chan struct{}
	err  error
}

func spawn(fn func() error) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.err = fn()
	}()
	return t
}

// Done is closed once the work has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the work finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
