package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/opst/jobtracker/cmd/jobctl/rest"
	"github.com/opst/jobtracker/pkg/api/types/jobs"
)

func New(t *testing.T) *mockJobClient {
	return &mockJobClient{t: t}
}

type mockJobClient struct {
	t    *testing.T
	mu   sync.Mutex
	Impl struct {
		ListJobs           func(ctx context.Context) ([]jobs.Job, error)
		ListValidationJobs func(ctx context.Context) ([]jobs.ValidationJob, error)
		GetJobStatus       func(ctx context.Context, jobId string) (jobs.StatusReport, error)
		StreamLog          func(ctx context.Context, jobId string, onLine func(string)) error
		GetLogFile         func(ctx context.Context, jobId string) (string, error)
	}
	Calls struct {
		ListJobs           int
		ListValidationJobs int
		GetJobStatus       []string
		StreamLog          []string
		GetLogFile         []string
	}
}

var _ rest.JobClient = &mockJobClient{}

func (m *mockJobClient) ListJobs(ctx context.Context) ([]jobs.Job, error) {
	m.t.Helper()

	m.mu.Lock()
	m.Calls.ListJobs += 1
	m.mu.Unlock()
	if m.Impl.ListJobs == nil {
		m.t.Fatal("ListJobs is not ready to be called")
	}
	return m.Impl.ListJobs(ctx)
}

func (m *mockJobClient) ListValidationJobs(ctx context.Context) ([]jobs.ValidationJob, error) {
	m.t.Helper()

	m.mu.Lock()
	m.Calls.ListValidationJobs += 1
	m.mu.Unlock()
	if m.Impl.ListValidationJobs == nil {
		m.t.Fatal("ListValidationJobs is not ready to be called")
	}
	return m.Impl.ListValidationJobs(ctx)
}

func (m *mockJobClient) GetJobStatus(ctx context.Context, jobId string) (jobs.StatusReport, error) {
	m.t.Helper()

	m.mu.Lock()
	m.Calls.GetJobStatus = append(m.Calls.GetJobStatus, jobId)
	m.mu.Unlock()
	if m.Impl.GetJobStatus == nil {
		m.t.Fatal("GetJobStatus is not ready to be called")
	}
	return m.Impl.GetJobStatus(ctx, jobId)
}

func (m *mockJobClient) StreamLog(ctx context.Context, jobId string, onLine func(string)) error {
	m.t.Helper()

	m.mu.Lock()
	m.Calls.StreamLog = append(m.Calls.StreamLog, jobId)
	m.mu.Unlock()
	if m.Impl.StreamLog == nil {
		m.t.Fatal("StreamLog is not ready to be called")
	}
	return m.Impl.StreamLog(ctx, jobId, onLine)
}

func (m *mockJobClient) GetLogFile(ctx context.Context, jobId string) (string, error) {
	m.t.Helper()

	m.mu.Lock()
	m.Calls.GetLogFile = append(m.Calls.GetLogFile, jobId)
	m.mu.Unlock()
	if m.Impl.GetLogFile == nil {
		m.t.Fatal("GetLogFile is not ready to be called")
	}
	return m.Impl.GetLogFile(ctx, jobId)
}
