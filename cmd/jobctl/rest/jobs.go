package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opst/jobtracker/pkg/api/types/jobs"
)

func (c *client) ListJobs(ctx context.Context) ([]jobs.Job, error) {
	resp, err := c.get(ctx, "application/json", "jobs")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	ret := []jobs.Job{}
	if err := unmarshalJsonResponse(
		resp, &ret,
		MessageFor{
			Status4xx: "cannot list training jobs",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *client) ListValidationJobs(ctx context.Context) ([]jobs.ValidationJob, error) {
	resp, err := c.get(ctx, "application/json", "validation-jobs")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	ret := []jobs.ValidationJob{}
	if err := unmarshalJsonResponse(
		resp, &ret,
		MessageFor{
			Status4xx: "cannot list validation jobs",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *client) GetJobStatus(ctx context.Context, jobId string) (jobs.StatusReport, error) {
	resp, err := c.get(ctx, "application/json", "jobs", jobId, "status")
	if err != nil {
		return jobs.StatusReport{}, err
	}
	defer resp.Body.Close()

	report := jobs.StatusReport{}
	if err := unmarshalJsonResponse(
		resp, &report,
		MessageFor{
			Status4xx: fmt.Sprintf("job:%s is not found", jobId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return jobs.StatusReport{}, err
	}
	return report, nil
}

// StreamLog follows the live log of the job.
//
// Each event of the stream carries one or more lines of the log,
// and onLine is called for each of them.
func (c *client) StreamLog(ctx context.Context, jobId string, onLine func(line string)) error {
	resp, err := c.get(ctx, "text/event-stream", "jobs", jobId, "logs", "stream")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := unmarshalStreamResponse(
		resp,
		MessageFor{
			Status4xx: fmt.Sprintf("cannot follow log of job:%s", jobId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	)
	if err != nil {
		return err
	}

	err = ReadEvents(body, func(ev Event) error {
		if ev.Type != "message" && ev.Type != "log" {
			return nil
		}
		for _, line := range strings.Split(ev.Data, "\n") {
			onLine(line)
		}
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return errors.Join(ctx.Err(), err)
	}
	return err
}

func (c *client) GetLogFile(ctx context.Context, jobId string) (string, error) {
	resp, err := c.get(ctx, "text/plain", "jobs", jobId, "logs")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := unmarshalStreamResponse(
		resp,
		MessageFor{
			Status4xx: fmt.Sprintf("cannot get log of job:%s", jobId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	)
	if err != nil {
		return "", err
	}

	text, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(text), nil
}
