package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/opst/jobtracker/pkg/loop"
	"github.com/opst/jobtracker/pkg/tracker"
	"github.com/sirupsen/logrus"
)

// Source is what AutoSave saves. *tracker.Tracker is.
type Source interface {
	Subscribe() (<-chan struct{}, func())
	Persist() tracker.Persisted
}

var _ Source = &tracker.Tracker{}

// AutoSave saves the persisted form of src into store when it is changed,
// at most once in every interval, until ctx is done.
//
// Failures in saving are logged, and saving is tried again on the next change.
// It returns nil when ctx is done.
func AutoSave(ctx context.Context, src Source, store Store, interval time.Duration, log logrus.FieldLogger) error {
	changes, unsubscribe := src.Subscribe()
	defer unsubscribe()

	_, err := loop.Start(ctx, struct{}{}, func(ctx context.Context, _ struct{}) (struct{}, loop.Next) {
		select {
		case <-changes:
		default:
			return struct{}{}, loop.Continue(interval)
		}

		if err := store.Save(ctx, src.Persist()); err != nil {
			if ctx.Err() != nil {
				return struct{}{}, loop.Break(ctx.Err())
			}
			log.WithError(err).Warn("failed to save snapshot")
		}
		return struct{}{}, loop.Continue(interval)
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
