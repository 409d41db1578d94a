// Package filewatch watches files with fsnotify.
package filewatch

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// UntilModifyContext returns a context which is cancelled
// when one of the paths is written, created, removed, renamed or chmod-ed.
//
// The cause of the cancellation (context.Cause) names the file and the operation.
//
// When it fails to watch files, it returns an error with nil context and nil cancel function.
func UntilModifyContext(ctx context.Context, paths ...string) (context.Context, func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			w.Close()
			return nil, nil, fmt.Errorf("cannot watch %s: %w", p, err)
		}
	}

	cctx, cancel := context.WithCancelCause(ctx)
	go func() {
		defer w.Close()
		for {
			select {
			case <-cctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(fmt.Errorf("watching files failed: %w", err))
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				cancel(fmt.Errorf("%s is modified (%s)", ev.Name, ev.Op.String()))
			}
		}
	}()

	return cctx, func() { cancel(nil) }, nil
}
