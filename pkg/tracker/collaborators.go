package tracker

import (
	"context"

	"github.com/opst/jobtracker/pkg/api/types/jobs"
	"github.com/opst/jobtracker/pkg/logparse"
)

type JobLister interface {
	ListJobs(ctx context.Context) ([]jobs.Job, error)
	ListValidationJobs(ctx context.Context) ([]jobs.ValidationJob, error)
}

type StatusChecker interface {
	GetJobStatus(ctx context.Context, jobId string) (jobs.StatusReport, error)
}

type LogStreamer interface {
	// StreamLog calls onLine for each line of the live log of the job,
	// until the stream ends or ctx is done.
	//
	// It returns nil when the server closes the stream.
	StreamLog(ctx context.Context, jobId string, onLine func(line string)) error
}

type LogFetcher interface {
	// GetLogFile returns the whole log of the job.
	GetLogFile(ctx context.Context, jobId string) (string, error)
}

// Client is the job API as seen by Tracker.
type Client interface {
	JobLister
	StatusChecker
	LogStreamer
	LogFetcher
}

// Observer is notified of what Tracker does in background.
//
// Methods are called from goroutines of Tracker, so they should return quickly.
type Observer interface {
	// a polling round started with this number of active jobs.
	PollRound(active int)

	StatusCheckFailed(jobId string, err error)

	LogEntryReceived(entry logparse.Entry)

	// a log stream is closed. err is nil when it is closed by the server or by Tracker.
	StreamClosed(jobId string, err error)

	FetchCompleted(err error)
}

// NopObserver ignores everything.
type NopObserver struct{}

var _ Observer = NopObserver{}

func (NopObserver) PollRound(int)                   {}
func (NopObserver) StatusCheckFailed(string, error) {}
func (NopObserver) LogEntryReceived(logparse.Entry) {}
func (NopObserver) StreamClosed(string, error)      {}
func (NopObserver) FetchCompleted(error)            {}
