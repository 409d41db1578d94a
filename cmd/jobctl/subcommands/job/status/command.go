package status

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opst/jobtracker/cmd/jobctl/rest"
	"github.com/opst/jobtracker/cmd/jobctl/subcommands/common"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

const ARG_JOBID = "JOB_ID"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show the status of a training job.",
		struct{}{},
		flarc.Args{
			{Name: ARG_JOBID, Required: true, Help: "Id of the training job"},
		},
		common.NewTask(Task),
	)
}

func Task(
	ctx context.Context,
	logger logrus.FieldLogger,
	client rest.JobClient,
	cl flarc.Commandline[struct{}],
	params []any,
) error {
	jobId := cl.Args()[ARG_JOBID][0]
	report, err := client.GetJobStatus(ctx, jobId)
	if err != nil {
		return fmt.Errorf("%w: job:%s", err, jobId)
	}

	enc := json.NewEncoder(cl.Stdout())
	enc.SetIndent("", "    ")
	return enc.Encode(report)
}
