package parse

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/opst/jobtracker/cmd/jobctl/subcommands/internal/logprint"
	"github.com/opst/jobtracker/pkg/logparse"
	"github.com/opst/jobtracker/pkg/utils/filewatch"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Follow bool `flag:"follow" alias:"f" help:"follow lines appended to the file, until it is removed."`
	Json   bool `flag:"json" help:"print log entries as JSON lines."`
}

const ARG_FILE = "FILE"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Parse a log file of a training job.",
		Flags{},
		flarc.Args{
			{Name: ARG_FILE, Required: true, Help: "path to the log file"},
		},
		Task,
		flarc.WithDescription(`
Parse a log file on your machine, and print its entries.

Lines reporting "epoch:N" are printed with their metrics.
When --follow is passed, it prints lines appended to the file as "tail -f" does.
`),
	)
}

func Task(ctx context.Context, cl flarc.Commandline[Flags], params []any) error {
	path := cl.Args()[ARG_FILE][0]
	flags := cl.Flags()
	printer := logprint.New(cl.Stdout(), flags.Json)

	if !flags.Follow {
		text, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return printer.All(logparse.ParseLines(string(text)))
	}

	var printErr error
	err := filewatch.Tail(ctx, path, func(line string) {
		if printErr != nil {
			return
		}
		printErr = printer(logparse.Parse(line))
	})
	if printErr != nil {
		return printErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot follow %s: %w", path, err)
	}
	return nil
}
