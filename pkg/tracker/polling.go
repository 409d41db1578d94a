package tracker

import (
	"context"
	"errors"

	"github.com/opst/jobtracker/pkg/loop"
	"golang.org/x/sync/errgroup"
)

// StartPolling starts checking status of active (pending or running) jobs
// at each interval.
//
// The first round runs immediately. Polling stops by itself
// when no jobs are active at the beginning of a round.
//
// If polling is running already, it is restarted.
func (t *Tracker) StartPolling() {
	t.pollMu.Lock()
	defer t.pollMu.Unlock()
	t.stopPollingLocked()

	t.mu.Lock()
	h := loop.Go(t.base, struct{}{}, t.pollRound)
	t.poller = h
	t.changed()
	t.mu.Unlock()

	go func() {
		<-h.Done()
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.poller == h {
			t.poller = nil
			t.changed()
		}
	}()
}

// StopPolling stops polling and waits for the running round, if any.
//
// It does nothing when polling is not running.
func (t *Tracker) StopPolling() {
	t.pollMu.Lock()
	defer t.pollMu.Unlock()
	t.stopPollingLocked()
}

// t.pollMu should be locked.
func (t *Tracker) stopPollingLocked() {
	t.mu.Lock()
	h := t.poller
	t.poller = nil
	if h != nil {
		t.changed()
	}
	t.mu.Unlock()

	if h != nil {
		h.Stop()
	}
}

func (t *Tracker) activeJobIds() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := []string{}
	for _, j := range t.jobs {
		if j.Status.IsActive() {
			ids = append(ids, j.JobId)
		}
	}
	return ids
}

func (t *Tracker) pollRound(ctx context.Context, _ struct{}) (struct{}, loop.Next) {
	ids := t.activeJobIds()
	t.observer.PollRound(len(ids))
	if len(ids) == 0 {
		t.log.Debug("no active jobs. polling stops")
		return struct{}{}, loop.Break(nil)
	}

	eg := new(errgroup.Group)
	for _, id := range ids {
		eg.Go(func() error {
			report, err := t.client.GetJobStatus(ctx, id)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return nil
				}
				t.log.WithError(err).WithField("jobId", id).Warn("failed to check job status")
				t.observer.StatusCheckFailed(id, err)
				return nil
			}
			if ctx.Err() != nil {
				// polling has been stopped. the result is stale.
				return nil
			}
			t.UpdateJobStatus(id, report.Status, report.Progress)
			return nil
		})
	}
	eg.Wait()

	return struct{}{}, loop.Continue(t.interval)
}
