package job

import (
	job_list "github.com/opst/jobtracker/cmd/jobctl/subcommands/job/list"
	job_log "github.com/opst/jobtracker/cmd/jobctl/subcommands/job/log"
	job_status "github.com/opst/jobtracker/cmd/jobctl/subcommands/job/status"
	job_watch "github.com/opst/jobtracker/cmd/jobctl/subcommands/job/watch"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	list, err := job_list.New()
	if err != nil {
		return nil, err
	}
	status, err := job_status.New()
	if err != nil {
		return nil, err
	}
	watch, err := job_watch.New()
	if err != nil {
		return nil, err
	}
	log, err := job_log.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Track training jobs.",
		struct{}{},
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("status", status),
		flarc.WithSubcommand("watch", watch),
		flarc.WithSubcommand("log", log),
	)
}
