// Package metrics exports what a tracker does in background as Prometheus metrics.
package metrics

import (
	"github.com/opst/jobtracker/pkg/logparse"
	"github.com/opst/jobtracker/pkg/tracker"
	"github.com/prometheus/client_golang/prometheus"
)

const prefix = "jobtracker_"

type Collector struct {
	pollRounds          prometheus.Counter
	statusCheckFailures prometheus.Counter
	logEntries          *prometheus.CounterVec
	streamClosed        *prometheus.CounterVec
	fetches             *prometheus.CounterVec
	activeJobs          prometheus.Gauge
}

var _ tracker.Observer = &Collector{}

// NewCollector creates metrics and registers them to reg.
//
// It panics when they have been registered already, as prometheus.MustRegister does.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pollRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "poll_rounds_total",
			Help: "Number of polling rounds started",
		}),
		statusCheckFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "status_check_failures_total",
			Help: "Number of failed job status checks",
		}),
		logEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "log_entries_total",
				Help: "Number of log lines received from log streams, by entry type",
			},
			[]string{"type"},
		),
		streamClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "stream_closed_total",
				Help: "Number of log streams closed, by result (ok or error)",
			},
			[]string{"result"},
		),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "fetch_total",
				Help: "Number of job list fetches, by result (ok or error)",
			},
			[]string{"result"},
		),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "active_jobs",
			Help: "Number of pending or running jobs at the last polling round",
		}),
	}

	reg.MustRegister(
		c.pollRounds,
		c.statusCheckFailures,
		c.logEntries,
		c.streamClosed,
		c.fetches,
		c.activeJobs,
	)
	return c
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (c *Collector) PollRound(active int) {
	c.pollRounds.Inc()
	c.activeJobs.Set(float64(active))
}

func (c *Collector) StatusCheckFailed(string, error) {
	c.statusCheckFailures.Inc()
}

func (c *Collector) LogEntryReceived(entry logparse.Entry) {
	c.logEntries.WithLabelValues(string(entry.Kind())).Inc()
}

func (c *Collector) StreamClosed(_ string, err error) {
	c.streamClosed.WithLabelValues(result(err)).Inc()
}

func (c *Collector) FetchCompleted(err error) {
	c.fetches.WithLabelValues(result(err)).Inc()
}
