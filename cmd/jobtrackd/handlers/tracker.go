package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/jobtracker/pkg/api/types/errors"
	"github.com/opst/jobtracker/pkg/api/types/jobs"
	"github.com/opst/jobtracker/pkg/api/types/trackers"
	"github.com/opst/jobtracker/pkg/echoutil"
	"github.com/opst/jobtracker/pkg/logparse"
	"github.com/opst/jobtracker/pkg/tracker"
)

// Tracker is the part of *tracker.Tracker which handlers use.
type Tracker interface {
	State() tracker.State
	Logs(since int) []logparse.Entry
	Subscribe() (<-chan struct{}, func())

	FetchJobs(ctx context.Context) error
	SelectJob(job *jobs.JobWithValidation)
	SelectJobById(jobId string) (jobs.JobWithValidation, error)
	LoadLogFile(ctx context.Context, jobId string) error

	StartPolling()
	StopPolling()

	ConnectToLogs(jobId string)
	DisconnectFromLogs()
}

var _ Tracker = &tracker.Tracker{}

func compose(st tracker.State) trackers.State {
	ret := trackers.State{
		Jobs:           st.Jobs,
		ValidationJobs: st.ValidationJobs,
		SelectedJob:    st.SelectedJob,
		IsLoading:      st.IsLoading,
		IsPolling:      st.IsPolling,
		LogCount:       len(st.Logs),
		StreamingJobId: st.StreamingJobId,
	}
	if st.Err != nil {
		ret.Error = st.Err.Error()
	}
	return ret
}

func GetStateHandler(tr Tracker) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, compose(tr.State()))
	}
}

// FetchJobsHandler reads jobs from the job API, and responds the new state.
func FetchJobsHandler(tr Tracker) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := tr.FetchJobs(c.Request().Context()); err != nil {
			return apierr.BadGateway(err)
		}
		return c.JSON(http.StatusOK, compose(tr.State()))
	}
}

func SelectJobHandler(tr Tracker, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		job, err := tr.SelectJobById(c.Param(param))
		if errors.Is(err, tracker.ErrJobNotFound) {
			return apierr.NotFound("fetch jobs, and select one of them.")
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, job)
	}
}

func DeselectJobHandler(tr Tracker) echo.HandlerFunc {
	return func(c echo.Context) error {
		tr.SelectJob(nil)
		return c.NoContent(http.StatusNoContent)
	}
}

// PollingHandler starts (start == true) or stops polling.
func PollingHandler(tr Tracker, start bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		if start {
			tr.StartPolling()
		} else {
			tr.StopPolling()
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func ConnectToLogsHandler(tr Tracker, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		jobId := c.Param(param)
		if jobId == "" {
			return apierr.BadRequest("job id is required", nil)
		}
		tr.ConnectToLogs(jobId)
		return c.NoContent(http.StatusNoContent)
	}
}

func DisconnectFromLogsHandler(tr Tracker) echo.HandlerFunc {
	return func(c echo.Context) error {
		tr.DisconnectFromLogs()
		return c.NoContent(http.StatusNoContent)
	}
}

// LoadLogFileHandler replaces logs with the whole log of the job.
func LoadLogFileHandler(tr Tracker, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := tr.LoadLogFile(c.Request().Context(), c.Param(param)); err != nil {
			return apierr.BadGateway(err)
		}
		return c.JSON(http.StatusOK, compose(tr.State()))
	}
}

// GetLogsHandler responds log entries from the index in query "since" (default: 0).
func GetLogsHandler(tr Tracker) echo.HandlerFunc {
	return func(c echo.Context) error {
		since := 0
		if q := c.QueryParam("since"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n < 0 {
				return apierr.BadRequest(`"since" should be a non-negative integer`, err)
			}
			since = n
		}

		entries := tr.Logs(since)
		return c.JSON(http.StatusOK, trackers.LogPage{
			Since:   since,
			Next:    since + len(entries),
			Entries: entries,
		})
	}
}

// EventsHandler streams "state" events, one on connection and one on each change,
// until the client goes away.
func EventsHandler(tr Tracker) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		changes, unsubscribe := tr.Subscribe()
		defer unsubscribe()

		echoutil.StartEventStream(c)
		for {
			buf, err := json.Marshal(compose(tr.State()))
			if err != nil {
				return err
			}
			if err := echoutil.WriteEvent(c, "state", string(buf)); err != nil {
				return nil
			}

			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-changes:
				if !ok {
					return nil
				}
			}
		}
	}
}
