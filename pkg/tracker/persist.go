package tracker

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/opst/jobtracker/pkg/api/types/jobs"
	"github.com/opst/jobtracker/pkg/logparse"
)

// SnapshotVersion is the version of Persisted which this package writes and reads.
const SnapshotVersion = 1

var ErrUnsupportedSnapshot = errors.New("unsupported snapshot version")

// Persisted is the part of the state which survives restarts.
//
// Logs, streams and errors are not persisted; they are rebuilt after restoring.
type Persisted struct {
	Version        int                      `json:"version" yaml:"version"`
	SelectedJobId  string                   `json:"selected_job_id,omitempty" yaml:"selectedJobId,omitempty"`
	Jobs           []jobs.JobWithValidation `json:"jobs" yaml:"jobs"`
	ValidationJobs []jobs.ValidationJob     `json:"validation_jobs" yaml:"validationJobs"`
	SavedAt        time.Time                `json:"saved_at" yaml:"savedAt"`
}

// Persist returns the snapshot of the state.
func (t *Tracker) Persist() Persisted {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := Persisted{
		Version:        SnapshotVersion,
		Jobs:           slices.Clone(t.jobs),
		ValidationJobs: slices.Clone(t.validationJobs),
		SavedAt:        time.Now(),
	}
	if t.selected != nil {
		p.SelectedJobId = t.selected.JobId
	}
	return p
}

// Restore replaces the job list and the selection with the snapshot.
//
// It closes the log stream and clears logs, but does not start polling.
//
// If the version of the snapshot is not SnapshotVersion,
// it returns ErrUnsupportedSnapshot and changes nothing.
func (t *Tracker) Restore(p Persisted) error {
	if p.Version != SnapshotVersion {
		return fmt.Errorf("%w: %d (want %d)", ErrUnsupportedSnapshot, p.Version, SnapshotVersion)
	}

	t.DisconnectFromLogs()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.jobs = slices.Clone(p.Jobs)
	if t.jobs == nil {
		t.jobs = []jobs.JobWithValidation{}
	}
	t.validationJobs = slices.Clone(p.ValidationJobs)
	if t.validationJobs == nil {
		t.validationJobs = []jobs.ValidationJob{}
	}
	t.selected = nil
	if p.SelectedJobId != "" {
		if i := t.indexOf(p.SelectedJobId); 0 <= i {
			s := t.jobs[i]
			t.selected = &s
		}
	}
	t.logs = []logparse.Entry{}
	t.err = nil
	t.changed()
	return nil
}
