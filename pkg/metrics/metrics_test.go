package metrics_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/opst/jobtracker/pkg/logparse"
	"github.com/opst/jobtracker/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	testee := metrics.NewCollector(reg)

	testee.PollRound(3)
	testee.PollRound(2)
	testee.StatusCheckFailed("j1", errors.New("fake error"))
	testee.LogEntryReceived(logparse.Parse("Epoch: 1 | loss: 0.3"))
	testee.LogEntryReceived(logparse.Parse("Epoch: 2 | loss: 0.2"))
	testee.LogEntryReceived(logparse.Parse("hello"))
	testee.StreamClosed("j1", nil)
	testee.StreamClosed("j1", errors.New("fake error"))
	testee.FetchCompleted(nil)

	expected := `
# HELP jobtracker_active_jobs Number of pending or running jobs at the last polling round
# TYPE jobtracker_active_jobs gauge
jobtracker_active_jobs 2
# HELP jobtracker_fetch_total Number of job list fetches, by result (ok or error)
# TYPE jobtracker_fetch_total counter
jobtracker_fetch_total{result="ok"} 1
# HELP jobtracker_log_entries_total Number of log lines received from log streams, by entry type
# TYPE jobtracker_log_entries_total counter
jobtracker_log_entries_total{type="message"} 1
jobtracker_log_entries_total{type="metrics"} 2
# HELP jobtracker_poll_rounds_total Number of polling rounds started
# TYPE jobtracker_poll_rounds_total counter
jobtracker_poll_rounds_total 2
# HELP jobtracker_status_check_failures_total Number of failed job status checks
# TYPE jobtracker_status_check_failures_total counter
jobtracker_status_check_failures_total 1
# HELP jobtracker_stream_closed_total Number of log streams closed, by result (ok or error)
# TYPE jobtracker_stream_closed_total counter
jobtracker_stream_closed_total{result="error"} 1
jobtracker_stream_closed_total{result="ok"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}

func TestCollector_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering twice does not panic")
		}
	}()
	metrics.NewCollector(reg)
}
