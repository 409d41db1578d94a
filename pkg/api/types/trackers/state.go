// Package trackers is the shape of tracker state served by jobtrackd.
package trackers

import (
	"github.com/opst/jobtracker/pkg/api/types/jobs"
	"github.com/opst/jobtracker/pkg/logparse"
)

// State is the tracker state without log entries.
//
// Log entries are served by pages (see LogPage), since they grow long.
type State struct {
	Jobs           []jobs.JobWithValidation `json:"jobs"`
	ValidationJobs []jobs.ValidationJob     `json:"validation_jobs"`
	SelectedJob    *jobs.JobWithValidation  `json:"selected_job,omitempty"`
	IsLoading      bool                     `json:"is_loading"`
	IsPolling      bool                     `json:"is_polling"`

	// number of log entries the tracker holds.
	LogCount int `json:"log_count"`

	// job whose log stream is open, if any.
	StreamingJobId string `json:"streaming_job_id,omitempty"`

	// the last error in background, if any.
	Error string `json:"error,omitempty"`
}

// LogPage is a part of log entries, from index Since to Next (exclusive).
type LogPage struct {
	Since   int              `json:"since"`
	Next    int              `json:"next"`
	Entries []logparse.Entry `json:"entries"`
}
