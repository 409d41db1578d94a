package main

import (
	"context"
	"os"
	"os/signal"
	"path"

	"github.com/opst/jobtracker/cmd/jobctl/subcommands/common"
	subinit "github.com/opst/jobtracker/cmd/jobctl/subcommands/init"
	subjob "github.com/opst/jobtracker/cmd/jobctl/subcommands/job"
	sublog "github.com/opst/jobtracker/cmd/jobctl/subcommands/log"
	"github.com/opst/jobtracker/cmd/jobctl/subcommands/logger"
	"github.com/opst/jobtracker/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default().WithField("command", name)

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := try.To(common.Flags(".")).OrFatal(logger)
	init := try.To(subinit.New()).OrFatal(logger)
	job := try.To(subjob.New()).OrFatal(logger)
	log := try.To(sublog.New()).OrFatal(logger)

	jobctl := try.To(
		flarc.NewCommandGroup(
			"Commandline interface to track training jobs",
			cf,
			flarc.WithSubcommand("init", init),
			flarc.WithSubcommand("job", job),
			flarc.WithSubcommand("log", log),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, jobctl, flarc.WithHelp(true)))
}
