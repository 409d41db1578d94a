// Package snapshot stores tracker.Persisted, so that the job list and
// the selection survive restarts of jobtrackd.
package snapshot

import (
	"context"
	"errors"

	"github.com/opst/jobtracker/pkg/tracker"
)

// ErrNotFound is returned by Store.Load when nothing has been saved.
var ErrNotFound = errors.New("no snapshot")

type Store interface {
	Load(ctx context.Context) (tracker.Persisted, error)
	Save(ctx context.Context, p tracker.Persisted) error
}
