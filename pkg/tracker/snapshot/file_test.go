package snapshot_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/opst/jobtracker/pkg/api/types/jobs"
	"github.com/opst/jobtracker/pkg/tracker"
	"github.com/opst/jobtracker/pkg/tracker/snapshot"
	"github.com/opst/jobtracker/pkg/utils/try"
)

func example() tracker.Persisted {
	progress := 30.0
	return tracker.Persisted{
		Version:       tracker.SnapshotVersion,
		SelectedJobId: "train_001",
		Jobs: []jobs.JobWithValidation{
			{
				Job: jobs.Job{
					JobId:      "train_001",
					Status:     jobs.Done,
					Progress:   100,
					DatasetId:  "ds-1",
					FeatureIds: []string{"f-1", "f-2"},
					CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
				},
				ValidationJob: &jobs.ValidationJob{
					ValJobId:   "val_001",
					TrainJobId: "train_001",
					Status:     jobs.Running,
					Progress:   &progress,
					CreatedAt:  time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC),
				},
			},
			{
				Job: jobs.Job{
					JobId:     "train_002",
					Status:    jobs.Pending,
					CreatedAt: time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC),
				},
			},
		},
		ValidationJobs: []jobs.ValidationJob{
			{
				ValJobId:   "val_001",
				TrainJobId: "train_001",
				Status:     jobs.Running,
				Progress:   &progress,
				Result:     map[string]float64{"oa": 91.5},
				CreatedAt:  time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC),
			},
		},
		SavedAt: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
	}
}

func TestFileStore(t *testing.T) {
	t.Run("it loads what it saved", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "state", "snapshot.yaml")
		testee := snapshot.NewFileStore(path)

		if err := testee.Save(ctx, example()); err != nil {
			t.Fatal(err)
		}
		got := try.To(testee.Load(ctx)).OrFatal(t)
		if want := example(); !cmp.Equal(got, want) {
			t.Errorf("snapshot: %s", cmp.Diff(want, got))
		}

		if runtime.GOOS != "windows" {
			stat := try.To(os.Stat(path)).OrFatal(t)
			if perm := stat.Mode().Perm(); perm != 0600 {
				t.Errorf("permission: %o", perm)
			}
		}

		entries := try.To(os.ReadDir(filepath.Dir(path))).OrFatal(t)
		if len(entries) != 1 {
			t.Errorf("temporary files are left: %v", entries)
		}
	})

	t.Run("it overwrites the last snapshot", func(t *testing.T) {
		ctx := context.Background()
		testee := snapshot.NewFileStore(filepath.Join(t.TempDir(), "snapshot.yaml"))

		if err := testee.Save(ctx, example()); err != nil {
			t.Fatal(err)
		}
		next := tracker.Persisted{
			Version:        tracker.SnapshotVersion,
			Jobs:           []jobs.JobWithValidation{},
			ValidationJobs: []jobs.ValidationJob{},
			SavedAt:        time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
		}
		if err := testee.Save(ctx, next); err != nil {
			t.Fatal(err)
		}

		got := try.To(testee.Load(ctx)).OrFatal(t)
		if !cmp.Equal(got, next) {
			t.Errorf("snapshot: %s", cmp.Diff(next, got))
		}
	})

	t.Run("when nothing is saved, it returns ErrNotFound", func(t *testing.T) {
		testee := snapshot.NewFileStore(filepath.Join(t.TempDir(), "snapshot.yaml"))
		if _, err := testee.Load(context.Background()); !errors.Is(err, snapshot.ErrNotFound) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("when the file is broken, it returns an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "snapshot.yaml")
		if err := os.WriteFile(path, []byte("version: [1"), 0600); err != nil {
			t.Fatal(err)
		}
		testee := snapshot.NewFileStore(path)
		_, err := testee.Load(context.Background())
		if err == nil || errors.Is(err, snapshot.ErrNotFound) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
