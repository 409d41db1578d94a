// Package tracker keeps track of training jobs:
// the job list, the selected job, status polling and the live log of a job.
//
// A Tracker is created once per view (a CLI command or a daemon process)
// and passed to whatever renders it. Call Cleanup when the view goes away.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/opst/jobtracker/pkg/api/types/jobs"
	"github.com/opst/jobtracker/pkg/logparse"
	"github.com/opst/jobtracker/pkg/loop"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultInterval is the interval between polling rounds.
const DefaultInterval = 10 * time.Second

var ErrJobNotFound = errors.New("job not found")

// State is a copy of what Tracker knows.
type State struct {
	Jobs           []jobs.JobWithValidation
	ValidationJobs []jobs.ValidationJob
	SelectedJob    *jobs.JobWithValidation
	IsLoading      bool
	IsPolling      bool
	Logs           []logparse.Entry

	// job id of the open log stream. Empty if there is none.
	StreamingJobId string

	// the last error to be shown to users. nil if there is none.
	Err error
}

type config struct {
	logger        logrus.FieldLogger
	interval      time.Duration
	followRunning bool
	observer      Observer
	ctx           context.Context
}

type Option func(*config) *config

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) *config {
		c.logger = l
		return c
	}
}

// WithInterval sets the interval between polling rounds.
func WithInterval(d time.Duration) Option {
	return func(c *config) *config {
		c.interval = d
		return c
	}
}

// WithFollowRunning makes Tracker connect to the log stream of the selected job
// when UpdateJobStatus observes that the job has become running.
func WithFollowRunning(follow bool) Option {
	return func(c *config) *config {
		c.followRunning = follow
		return c
	}
}

func WithObserver(o Observer) Option {
	return func(c *config) *config {
		c.observer = o
		return c
	}
}

// WithContext sets the context which the poller and log streams run under.
//
// When it is done, they stop.
func WithContext(ctx context.Context) Option {
	return func(c *config) *config {
		c.ctx = ctx
		return c
	}
}

type Tracker struct {
	client        Client
	log           logrus.FieldLogger
	interval      time.Duration
	followRunning bool
	observer      Observer
	base          context.Context

	// pollMu serialises StartPolling/StopPolling,
	// and streamMu does ConnectToLogs/DisconnectFromLogs.
	// Both are taken before mu.
	pollMu   sync.Mutex
	streamMu sync.Mutex

	mu             sync.Mutex
	jobs           []jobs.JobWithValidation
	validationJobs []jobs.ValidationJob
	selected       *jobs.JobWithValidation
	loading        bool
	poller         *loop.Handle[struct{}]
	stream         *streamHandle
	logs           []logparse.Entry
	err            error

	subscribers map[int]chan struct{}
	nextSub     int
}

func New(client Client, options ...Option) *Tracker {
	c := &config{
		logger:   logrus.StandardLogger(),
		interval: DefaultInterval,
		observer: NopObserver{},
		ctx:      context.Background(),
	}
	for _, opt := range options {
		c = opt(c)
	}

	return &Tracker{
		client:        client,
		log:           c.logger,
		interval:      c.interval,
		followRunning: c.followRunning,
		observer:      c.observer,
		base:          c.ctx,

		jobs:           []jobs.JobWithValidation{},
		validationJobs: []jobs.ValidationJob{},
		logs:           []logparse.Entry{},
		subscribers:    map[int]chan struct{}{},
	}
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := State{
		Jobs:           slices.Clone(t.jobs),
		ValidationJobs: slices.Clone(t.validationJobs),
		IsLoading:      t.loading,
		IsPolling:      t.poller != nil,
		Logs:           slices.Clone(t.logs),
		Err:            t.err,
	}
	if t.selected != nil {
		s := *t.selected
		st.SelectedJob = &s
	}
	if t.stream != nil {
		st.StreamingJobId = t.stream.jobId
	}
	return st
}

// Logs returns log entries from the index since.
func (t *Tracker) Logs(since int) []logparse.Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if since < 0 {
		since = 0
	}
	if len(t.logs) <= since {
		return []logparse.Entry{}
	}
	return slices.Clone(t.logs[since:])
}

// Subscribe returns a channel receiving a value when the state is changed.
//
// Changes are coalesced: a receiver gets at least one value after changes,
// not one per change. Call the returned function to unsubscribe.
func (t *Tracker) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	t.mu.Lock()
	id := t.nextSub
	t.nextSub += 1
	t.subscribers[id] = ch
	t.mu.Unlock()

	once := sync.Once{}
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subscribers, id)
			close(ch)
		})
	}
}

// notify subscribers. t.mu should be locked.
func (t *Tracker) changed() {
	for _, ch := range t.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// FetchJobs reads training jobs and validation jobs from the job API.
//
// On success, it replaces the job list and clears the error.
// Otherwise, the job list gets empty and the error is kept in the state and returned.
func (t *Tracker) FetchJobs(ctx context.Context) error {
	t.mu.Lock()
	t.loading = true
	t.changed()
	t.mu.Unlock()

	var train []jobs.Job
	var val []jobs.ValidationJob
	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		j, err := t.client.ListJobs(ectx)
		if err != nil {
			return fmt.Errorf("failed to load training jobs: %w", err)
		}
		train = j
		return nil
	})
	eg.Go(func() error {
		v, err := t.client.ListValidationJobs(ectx)
		if err != nil {
			return fmt.Errorf("failed to load validation jobs: %w", err)
		}
		val = v
		return nil
	})
	err := eg.Wait()

	t.mu.Lock()
	t.loading = false
	if err != nil {
		t.jobs = []jobs.JobWithValidation{}
		t.validationJobs = []jobs.ValidationJob{}
		t.err = err
		t.log.WithError(err).Warn("fetching jobs failed")
	} else {
		if val == nil {
			val = []jobs.ValidationJob{}
		}
		t.jobs = jobs.Compose(train, val)
		t.validationJobs = val
		t.err = nil
		if t.selected != nil {
			if i := t.indexOf(t.selected.JobId); 0 <= i {
				s := t.jobs[i]
				t.selected = &s
			}
		}
	}
	t.changed()
	t.mu.Unlock()

	t.observer.FetchCompleted(err)
	return err
}

// index of the job in t.jobs, or -1. t.mu should be locked.
func (t *Tracker) indexOf(jobId string) int {
	return slices.IndexFunc(t.jobs, func(j jobs.JobWithValidation) bool {
		return j.JobId == jobId
	})
}

// SelectJob closes the log stream, clears logs and selects the job.
//
// nil deselects. It does not connect to the log stream of the new job.
func (t *Tracker) SelectJob(job *jobs.JobWithValidation) {
	t.DisconnectFromLogs()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs = []logparse.Entry{}
	if job == nil {
		t.selected = nil
	} else {
		s := *job
		t.selected = &s
	}
	t.changed()
}

// SelectJobById selects a job in the job list, like SelectJob.
//
// If there are no such jobs, it returns ErrJobNotFound and changes nothing.
func (t *Tracker) SelectJobById(jobId string) (jobs.JobWithValidation, error) {
	t.mu.Lock()
	i := t.indexOf(jobId)
	if i < 0 {
		t.mu.Unlock()
		return jobs.JobWithValidation{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobId)
	}
	job := t.jobs[i]
	t.mu.Unlock()

	t.SelectJob(&job)
	return job, nil
}

// UpdateJobStatus sets status and progress of the job,
// both in the job list and in the selected job.
//
// Jobs not known are ignored.
func (t *Tracker) UpdateJobStatus(jobId string, status jobs.Status, progress float64) {
	follow := false

	t.mu.Lock()
	if i := t.indexOf(jobId); 0 <= i {
		t.jobs[i].Status = status
		t.jobs[i].Progress = progress
	}
	if s := t.selected; s != nil && s.JobId == jobId {
		follow = t.followRunning && s.Status != jobs.Running && status == jobs.Running
		s.Status = status
		s.Progress = progress
	}
	t.changed()
	t.mu.Unlock()

	if follow {
		t.log.WithField("jobId", jobId).Info("selected job is running. following its log")
		t.ConnectToLogs(jobId)
	}
}

// LoadLogFile replaces logs with the whole log of the job.
//
// It is for jobs which have been done or failed; it closes the log stream if any.
// On failure, the error is kept in the state and logs are left as they are.
func (t *Tracker) LoadLogFile(ctx context.Context, jobId string) error {
	t.DisconnectFromLogs()

	text, err := t.client.GetLogFile(ctx, jobId)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.err = fmt.Errorf("failed to load log of job %s: %w", jobId, err)
		t.changed()
		return t.err
	}
	t.logs = logparse.ParseLines(text)
	t.changed()
	return nil
}

// Cleanup stops polling, closes the log stream and forgets everything.
func (t *Tracker) Cleanup() {
	t.StopPolling()
	t.DisconnectFromLogs()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs = []jobs.JobWithValidation{}
	t.validationJobs = []jobs.ValidationJob{}
	t.selected = nil
	t.loading = false
	t.logs = []logparse.Entry{}
	t.err = nil
	t.changed()
}
