// Package shutdownqueue collects cleanup tasks during startup and drains
// them in LIFO order at the end of main:
//
//	shutdownqueue.Add(func(ctx context.Context) error { return srv.Shutdown(ctx) })
//	...
//	defer shutdownqueue.Shutdown(shutdownCtx)
//
// Shutdown is idempotent, recovers panicking tasks, and aggregates task
// errors with errors.Join.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is a shutdown function. It should honor ctx and return an error if it
// cannot finish in time.
type Task func(ctx context.Context) error

var (
	mu     sync.Mutex
	tasks  []Task
	closed bool
)

// Add registers a task to run on Shutdown, in LIFO order. Nil tasks and
// registrations after shutdown started are ignored.
func Add(t Task) {
	if t == nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	if closed {
		return
	}

	tasks = append(tasks, t)
}

// Shutdown drains all registered tasks in LIFO order. Safe to call more than
// once; later calls are no-ops. If ctx expires mid-drain, the remaining tasks
// are skipped and the context error is included in the result.
func Shutdown(ctx context.Context) error {
	mu.Lock()

	if closed {
		mu.Unlock()

		return nil
	}

	closed = true
	drained := tasks
	tasks = nil

	mu.Unlock()

	var errs []error

	for i := len(drained) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("shutdown canceled: %w", ctx.Err()))

			return errors.Join(errs...)
		default:
		}

		err := runTask(ctx, drained[i])
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runTask(ctx context.Context, t Task) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic in shutdown task: %v", r)
		}
	}()

	return t(ctx)
}
