package jobs

import (
	"fmt"
	"slices"
	"time"
)

type Status string

const (
	Pending Status = "pending"
	Running Status = "running"
	Done    Status = "done"
	Failed  Status = "failed"
)

func AsStatus(status string) (Status, error) {
	switch status {
	case string(Pending):
		return Pending, nil
	case string(Running):
		return Running, nil
	case string(Done):
		return Done, nil
	case string(Failed):
		return Failed, nil
	default:
		return "", fmt.Errorf("'%s' is not job status", status)
	}
}

// IsActive reports whether a job in this status can still change.
//
// Unknown statuses are not active.
func (s Status) IsActive() bool {
	return s == Pending || s == Running
}

func (s Status) IsTerminal() bool {
	return s == Done || s == Failed
}

// Job is a training job.
type Job struct {
	JobId        string    `json:"job_id" yaml:"jobId"`
	Status       Status    `json:"status" yaml:"status"`
	Progress     float64   `json:"progress" yaml:"progress"`
	DatasetId    string    `json:"dataset_id,omitempty" yaml:"datasetId,omitempty"`
	BackboneId   string    `json:"backbone_id,omitempty" yaml:"backboneId,omitempty"`
	ClassifierId string    `json:"classifier_id,omitempty" yaml:"classifierId,omitempty"`
	FeatureIds   []string  `json:"feature_ids,omitempty" yaml:"featureIds,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"createdAt"`
}

func (j Job) Equal(o Job) bool {
	return j.JobId == o.JobId &&
		j.Status == o.Status &&
		j.Progress == o.Progress &&
		j.DatasetId == o.DatasetId &&
		j.BackboneId == o.BackboneId &&
		j.ClassifierId == o.ClassifierId &&
		slices.Equal(j.FeatureIds, o.FeatureIds) &&
		j.CreatedAt.Equal(o.CreatedAt)
}

// ValidationJob evaluates the model of one training job.
type ValidationJob struct {
	ValJobId   string             `json:"val_job_id" yaml:"valJobId"`
	TrainJobId string             `json:"train_job_id" yaml:"trainJobId"`
	Status     Status             `json:"status" yaml:"status"`
	Progress   *float64           `json:"progress,omitempty" yaml:"progress,omitempty"`
	Result     map[string]float64 `json:"result,omitempty" yaml:"result,omitempty"`
	CreatedAt  time.Time          `json:"created_at" yaml:"createdAt"`
}

// JobWithValidation is a training job with its validation job, if any.
//
// It is composed by the client and never sent to the job API.
type JobWithValidation struct {
	Job           `yaml:",inline"`
	ValidationJob *ValidationJob `json:"validation_job,omitempty" yaml:"validationJob,omitempty"`
}

// StatusReport is the body of GET /jobs/{id}/status .
type StatusReport struct {
	Status   Status  `json:"status"`
	Progress float64 `json:"progress"`
}

// Compose pairs each training job with the validation job referring it.
//
// When more than one validation job refers the same training job,
// the one coming later in val takes over.
// The order of train is kept.
func Compose(train []Job, val []ValidationJob) []JobWithValidation {
	byTrainJob := make(map[string]*ValidationJob, len(val))
	for i := range val {
		v := val[i]
		byTrainJob[v.TrainJobId] = &v
	}

	ret := make([]JobWithValidation, 0, len(train))
	for _, j := range train {
		ret = append(ret, JobWithValidation{
			Job:           j,
			ValidationJob: byTrainJob[j.JobId],
		})
	}
	return ret
}
