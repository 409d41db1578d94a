// Package loop runs a task repeatedly with intervals,
// in the caller's goroutine (Start) or in a background goroutine (Go).
package loop

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Next tells the loop what to do after a task returns.
type Next struct {
	// if not nil, breaks with error
	err error

	// if quit == true and err == nil, breaks without error
	quit bool

	// otherwise, continue loop after interval.
	interval time.Duration
}

func (n Next) String() string {
	if n.err != nil {
		return fmt.Sprintf("[break] with error: %v", n.err)
	}
	if n.quit {
		return "[break] without error"
	}
	return fmt.Sprintf("[continue] interval: %s", n.interval)
}

// Continue the loop, running the task again after interval.
func Continue(interval time.Duration) Next {
	return Next{interval: interval}
}

// Break the loop. err can be nil.
func Break(err error) Next {
	return Next{quit: true, err: err}
}

// Task receives the value the last run returned, and returns a new one with Next.
//
// The zero value of Next means Continue(0).
type Task[T any] func(context.Context, T) (T, Next)

// Start runs task until it returns Break or ctx is done.
//
// The first run happens immediately with init.
//
// # Returns
//
// - T: the value the task returned at last (or init, if the task has never run).
//
// - error: the error passed to Break, or ctx.Err() when ctx is done.
func Start[T any](ctx context.Context, init T, task Task[T]) (T, error) {
	select {
	case <-ctx.Done():
		return init, ctx.Err()
	default:
	}

	value := init
	for {
		v, n := task(ctx, value)
		value = v
		if n.err != nil {
			return value, n.err
		} else if n.quit {
			return value, nil
		}

		timer := time.NewTimer(n.interval)
		select {
		case <-ctx.Done():
			// shutting down comes first.
			if !timer.Stop() {
				<-timer.C
			}
			return value, ctx.Err()
		case <-timer.C:
		}
	}
}

// Handle is a loop running in background.
type Handle[T any] struct {
	cancel func()
	done   chan struct{}

	once  sync.Once
	value T
	err   error
}

// Go runs Start in a new goroutine.
//
// The loop keeps running until the task breaks, ctx is done or Stop is called.
func Go[T any](ctx context.Context, init T, task Task[T]) *Handle[T] {
	cctx, cancel := context.WithCancel(ctx)
	h := &Handle[T]{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer cancel()
		h.value, h.err = Start(cctx, init, task)
	}()
	return h
}

// Done is closed when the loop has been finished.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Stop cancels the loop and waits for it to finish.
//
// It is safe to call Stop more than once, and after the loop finished by itself.
// It should not be called from the task, because the task never finishes then.
func (h *Handle[T]) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Result returns what Start returned.
//
// It blocks until the loop finishes.
func (h *Handle[T]) Result() (T, error) {
	<-h.done
	return h.value, h.err
}
