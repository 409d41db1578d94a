// Package context provides contexts bound to tests.
package context

import (
	"context"
	"testing"
	"time"
)

// WithTest returns a context which is done 1 second before the deadline of t,
// leaving time to clean up resources.
//
// If t has no deadline, ctx is returned as is.
func WithTest(ctx context.Context, t *testing.T) (context.Context, func()) {
	if deadline, ok := t.Deadline(); ok {
		return context.WithDeadline(ctx, deadline.Add(-time.Second))
	}
	return ctx, func() {}
}

// Eventually waits until cond holds, checking it at each interval.
//
// It fails t when cond does not hold until ctx is done.
func Eventually(ctx context.Context, t *testing.T, interval time.Duration, cond func() bool) {
	t.Helper()
	for !cond() {
		select {
		case <-ctx.Done():
			t.Fatalf("condition is not satisfied: %v", ctx.Err())
		case <-time.After(interval):
		}
	}
}
