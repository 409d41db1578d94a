package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/opst/jobtracker/pkg/logparse"
)

type streamHandle struct {
	// session id, to tell streams of the same job apart in logs.
	id     string
	jobId  string
	cancel func()
	done   chan struct{}
}

// ConnectToLogs opens the live log stream of the job.
//
// The stream opened before is closed first, so at most one stream is open.
// Each line from the stream is parsed and appended to logs.
//
// When the stream is closed by the server, logs are kept.
// When it fails, the error is kept in the state.
func (t *Tracker) ConnectToLogs(jobId string) {
	t.streamMu.Lock()
	defer t.streamMu.Unlock()
	t.disconnectLocked()

	ctx, cancel := context.WithCancel(t.base)
	h := &streamHandle{
		id:     uuid.NewString(),
		jobId:  jobId,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	t.mu.Lock()
	t.stream = h
	t.changed()
	t.mu.Unlock()

	go t.follow(ctx, h)
}

// DisconnectFromLogs closes the log stream, if any.
//
// It returns after the stream goroutine has finished,
// so no lines are appended after that.
func (t *Tracker) DisconnectFromLogs() {
	t.streamMu.Lock()
	defer t.streamMu.Unlock()
	t.disconnectLocked()
}

// t.streamMu should be locked.
func (t *Tracker) disconnectLocked() {
	t.mu.Lock()
	h := t.stream
	t.stream = nil
	if h != nil {
		t.changed()
	}
	t.mu.Unlock()

	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}

func (t *Tracker) follow(ctx context.Context, h *streamHandle) {
	defer close(h.done)
	defer h.cancel()

	log := t.log.WithField("jobId", h.jobId).WithField("stream", h.id)
	log.Debug("log stream opened")

	err := t.client.StreamLog(ctx, h.jobId, func(line string) {
		entry := logparse.Parse(line)

		t.mu.Lock()
		if t.stream != h {
			// superseded, or disconnected.
			t.mu.Unlock()
			return
		}
		t.logs = append(t.logs, entry)
		t.changed()
		t.mu.Unlock()

		t.observer.LogEntryReceived(entry)
	})

	cancelled := ctx.Err() != nil || errors.Is(err, context.Canceled)
	if cancelled {
		err = nil
	}

	t.mu.Lock()
	if t.stream == h {
		t.stream = nil
		if err != nil {
			t.err = fmt.Errorf("log stream of job %s is broken: %w", h.jobId, err)
		}
		t.changed()
	}
	t.mu.Unlock()

	if err != nil {
		log.WithError(err).Warn("log stream failed")
	} else {
		log.Debug("log stream closed")
	}
	t.observer.StreamClosed(h.jobId, err)
}
