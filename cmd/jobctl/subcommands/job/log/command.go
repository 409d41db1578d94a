package log

import (
	"context"
	"fmt"

	"github.com/opst/jobtracker/cmd/jobctl/rest"
	"github.com/opst/jobtracker/cmd/jobctl/subcommands/common"
	"github.com/opst/jobtracker/cmd/jobctl/subcommands/internal/logprint"
	"github.com/opst/jobtracker/pkg/logparse"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Follow bool `flag:"follow" alias:"f" help:"follow the live log of the running job."`
	Json   bool `flag:"json" help:"print log entries as JSON lines."`
}

const ARG_JOBID = "JOB_ID"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show the log of a training job.",
		Flags{},
		flarc.Args{
			{Name: ARG_JOBID, Required: true, Help: "Id of the training job"},
		},
		common.NewTask(Task),
		flarc.WithDescription(`
Show the log of a training job, parsing metrics in it.

When --follow is passed, it follows the live log until the server closes it
or you interrupt.
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
	jobId := cl.Args()[ARG_JOBID][0]
	flags := cl.Flags()
	printer := logprint.New(cl.Stdout(), flags.Json)

	if !flags.Follow {
		text, err := client.GetLogFile(ctx, jobId)
		if err != nil {
			return fmt.Errorf("%w: job:%s", err, jobId)
		}
		return printer.All(logparse.ParseLines(text))
	}

	var printErr error
	err := client.StreamLog(ctx, jobId, func(line string) {
		if printErr != nil {
			return
		}
		printErr = printer(logparse.Parse(line))
	})
	if printErr != nil {
		return printErr
	}
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("interrupted")
			return nil
		}
		return fmt.Errorf("%w: job:%s", err, jobId)
	}
	return nil
}
