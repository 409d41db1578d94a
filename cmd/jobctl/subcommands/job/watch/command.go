package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/opst/jobtracker/cmd/jobctl/rest"
	"github.com/opst/jobtracker/cmd/jobctl/subcommands/common"
	"github.com/opst/jobtracker/cmd/jobctl/subcommands/internal/logprint"
	"github.com/opst/jobtracker/pkg/api/types/jobs"
	"github.com/opst/jobtracker/pkg/tracker"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

// ErrJobFailed is returned when the watched job has failed.
var ErrJobFailed = errors.New("job failed")

type Flags struct {
	Interval string `flag:"interval" alias:"i" metavar:"DURATION" help:"interval of status checks, like 5s or 1m."`
	Grace    string `flag:"grace" metavar:"DURATION" help:"how long the log is followed after the job has finished."`
	Json     bool   `flag:"json" help:"print log entries as JSON lines."`
}

// DefaultGrace is how long a log stream is kept after its job has finished.
const DefaultGrace = 30 * time.Second

const ARG_JOBID = "JOB_ID"

const progressTemplate pb.ProgressBarTemplate = `{{with string . "prefix"}}{{.}} {{end}}{{bar . }} {{percent . }}`

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Watch a training job until it finishes.",
		Flags{Interval: tracker.DefaultInterval.String(), Grace: DefaultGrace.String()},
		flarc.Args{
			{Name: ARG_JOBID, Required: true, Help: "Id of the training job to be watched"},
		},
		common.NewTask(Task),
		flarc.WithDescription(`
Watch a training job until it is done or failed.

While the job is running, its log is followed and printed to stdout,
and its progress is shown on stderr.
When the job has been finished already, its whole log is printed.
A log stream still open after the job has finished is closed when --grace passes.

It fails when the job has failed.
`),
	)
}

func Task(
	ctx context.Context,
	logger logrus.FieldLogger,
	client rest.JobClient,
	cl flarc.Commandline[Flags],
	params []any,
) error {
	flags := cl.Flags()
	interval, err := time.ParseDuration(flags.Interval)
	if err != nil {
		return errors.Join(flarc.ErrUsage, fmt.Errorf("--interval: %w", err))
	}
	if interval <= 0 {
		return fmt.Errorf("%w: --interval should be positive: %s", flarc.ErrUsage, flags.Interval)
	}
	grace := DefaultGrace
	if flags.Grace != "" {
		if grace, err = time.ParseDuration(flags.Grace); err != nil {
			return errors.Join(flarc.ErrUsage, fmt.Errorf("--grace: %w", err))
		}
	}
	jobId := cl.Args()[ARG_JOBID][0]
	printer := logprint.New(cl.Stdout(), flags.Json)

	tr := tracker.New(
		client,
		tracker.WithLogger(logger),
		tracker.WithInterval(interval),
		tracker.WithFollowRunning(true),
		tracker.WithContext(ctx),
	)
	defer tr.Cleanup()

	changes, unsubscribe := tr.Subscribe()
	defer unsubscribe()

	if err := tr.FetchJobs(ctx); err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	job, err := tr.SelectJobById(jobId)
	if err != nil {
		return err
	}

	bar := newBar(cl.Stderr(), job)
	bar.Start()
	defer bar.Finish()

	if job.Status.IsTerminal() {
		if err := tr.LoadLogFile(ctx, jobId); err != nil {
			return err
		}
		if err := printer.All(tr.Logs(0)); err != nil {
			return err
		}
		return result(job)
	}

	if job.Status == jobs.Running {
		tr.ConnectToLogs(jobId)
	}
	tr.StartPolling()

	printed := 0
	var reported error
	var graceC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if err := printer.All(tr.Logs(printed)); err != nil {
				return err
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				// interrupted
				return nil
			}
			return ctx.Err()
		case <-graceC:
			logger.WithField("jobId", jobId).Debug("job has finished. closing the log stream")
			tr.DisconnectFromLogs()
		case <-changes:
		}

		st := tr.State()
		entries := tr.Logs(printed)
		if err := printer.All(entries); err != nil {
			return err
		}
		printed += len(entries)

		if st.Err != nil && st.Err != reported {
			logger.WithError(st.Err).Warn("trouble in tracking")
			reported = st.Err
		}

		sel := st.SelectedJob
		if sel == nil {
			return fmt.Errorf("job %s is no longer selected", jobId)
		}
		updateBar(bar, *sel)

		if !sel.Status.IsTerminal() {
			continue
		}
		if st.StreamingJobId != "" {
			if graceC == nil {
				timer := time.NewTimer(grace)
				defer timer.Stop()
				graceC = timer.C
			}
			continue
		}
		if printed == 0 {
			// finished without running state seen, or the stream has gone away.
			if err := tr.LoadLogFile(ctx, jobId); err != nil {
				return err
			}
			if err := printer.All(tr.Logs(0)); err != nil {
				return err
			}
		}
		return result(*sel)
	}
}

func newBar(w io.Writer, job jobs.JobWithValidation) *pb.ProgressBar {
	bar := progressTemplate.New(100)
	bar.SetWriter(w)
	updateBar(bar, job)
	return bar
}

func updateBar(bar *pb.ProgressBar, job jobs.JobWithValidation) {
	bar.Set("prefix", fmt.Sprintf("%s [%s]", job.JobId, job.Status))
	bar.SetCurrent(int64(math.Round(math.Min(math.Max(job.Progress, 0), 100))))
}

func result(job jobs.JobWithValidation) error {
	if job.Status == jobs.Failed {
		return fmt.Errorf("%w: %s", ErrJobFailed, job.JobId)
	}
	return nil
}
