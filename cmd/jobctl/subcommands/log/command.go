package log

import (
	log_parse "github.com/opst/jobtracker/cmd/jobctl/subcommands/log/parse"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	parse, err := log_parse.New()
	if err != nil {
		return nil, err
	}
	return flarc.NewCommandGroup(
		"Handle log files of training jobs.",
		struct{}{},
		flarc.WithSubcommand("parse", parse),
	)
}
