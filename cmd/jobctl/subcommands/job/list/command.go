package list

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opst/jobtracker/cmd/jobctl/rest"
	"github.com/opst/jobtracker/cmd/jobctl/subcommands/common"
	"github.com/opst/jobtracker/pkg/api/types/jobs"
	"github.com/opst/jobtracker/pkg/tracker"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Status []string `flag:"status" metavar:"STATUS" help:"show only jobs in this status (pending, running, done or failed). Repeatable."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List training jobs with their validation jobs.",
		Flags{},
		flarc.Args{},
		common.NewTask(Task),
		flarc.WithDescription(`
List training jobs, each paired with its validation job if any, as JSON.

When --status is passed, only jobs in one of the given statuses are shown.
`),
	)
}

func Task(
	ctx context.Context,
	logger logrus.FieldLogger,
	client rest.JobClient,
	cl flarc.Commandline[Flags],
	params []any,
) error {
	wanted := map[jobs.Status]struct{}{}
	for _, s := range cl.Flags().Status {
		status, err := jobs.AsStatus(s)
		if err != nil {
			return errors.Join(flarc.ErrUsage, err)
		}
		wanted[status] = struct{}{}
	}

	tr := tracker.New(client, tracker.WithLogger(logger))
	defer tr.Cleanup()

	if err := tr.FetchJobs(ctx); err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	found := []jobs.JobWithValidation{}
	for _, j := range tr.State().Jobs {
		if _, ok := wanted[j.Status]; len(wanted) == 0 || ok {
			found = append(found, j)
		}
	}

	enc := json.NewEncoder(cl.Stdout())
	enc.SetIndent("", "    ")
	return enc.Encode(found)
}
