package jobs_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/opst/jobtracker/pkg/api/types/jobs"
)

func TestCompose(t *testing.T) {
	type when struct {
		train []jobs.Job
		val   []jobs.ValidationJob
	}
	type then struct {
		composed []jobs.JobWithValidation
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			actual := jobs.Compose(when.train, when.val)
			if diff := cmp.Diff(then.composed, actual); diff != "" {
				t.Errorf("unexpected composition (-want +got):\n%s", diff)
			}
		}
	}

	t.Run("when no validation jobs are given, every job has no validation job", theory(
		when{
			train: []jobs.Job{
				{JobId: "train_001", Status: jobs.Running, Progress: 10},
			},
			val: []jobs.ValidationJob{},
		},
		then{
			composed: []jobs.JobWithValidation{
				{Job: jobs.Job{JobId: "train_001", Status: jobs.Running, Progress: 10}},
			},
		},
	))

	t.Run("when validation jobs are given, they are paired by train_job_id", theory(
		when{
			train: []jobs.Job{
				{JobId: "train_001", Status: jobs.Done, Progress: 100},
				{JobId: "train_002", Status: jobs.Pending},
			},
			val: []jobs.ValidationJob{
				{ValJobId: "val_001", TrainJobId: "train_001", Status: jobs.Running},
				{ValJobId: "val_999", TrainJobId: "train_999", Status: jobs.Done},
			},
		},
		then{
			composed: []jobs.JobWithValidation{
				{
					Job:           jobs.Job{JobId: "train_001", Status: jobs.Done, Progress: 100},
					ValidationJob: &jobs.ValidationJob{ValJobId: "val_001", TrainJobId: "train_001", Status: jobs.Running},
				},
				{Job: jobs.Job{JobId: "train_002", Status: jobs.Pending}},
			},
		},
	))

	t.Run("when validation jobs refer the same job, the later one wins", theory(
		when{
			train: []jobs.Job{{JobId: "train_001", Status: jobs.Done}},
			val: []jobs.ValidationJob{
				{ValJobId: "val_001", TrainJobId: "train_001", Status: jobs.Failed},
				{ValJobId: "val_002", TrainJobId: "train_001", Status: jobs.Done},
			},
		},
		then{
			composed: []jobs.JobWithValidation{
				{
					Job:           jobs.Job{JobId: "train_001", Status: jobs.Done},
					ValidationJob: &jobs.ValidationJob{ValJobId: "val_002", TrainJobId: "train_001", Status: jobs.Done},
				},
			},
		},
	))

	t.Run("when no training jobs are given, it returns empty", theory(
		when{
			val: []jobs.ValidationJob{{ValJobId: "val_001", TrainJobId: "train_001"}},
		},
		then{composed: []jobs.JobWithValidation{}},
	))
}

func TestStatus(t *testing.T) {
	for _, s := range []string{"pending", "running", "done", "failed"} {
		t.Run("it accepts "+s, func(t *testing.T) {
			st, err := jobs.AsStatus(s)
			if err != nil {
				t.Fatal(err)
			}
			if string(st) != s {
				t.Errorf("unexpected status: %s", st)
			}
		})
	}

	t.Run("it rejects unknown status", func(t *testing.T) {
		if _, err := jobs.AsStatus("deactivated"); err == nil {
			t.Error("expected error, but nil")
		}
	})

	for status, active := range map[jobs.Status]bool{
		jobs.Pending: true, jobs.Running: true, jobs.Done: false, jobs.Failed: false, "unknown": false,
	} {
		t.Run("activeness of "+string(status), func(t *testing.T) {
			if status.IsActive() != active {
				t.Errorf("IsActive: expected %v", active)
			}
		})
	}
}
