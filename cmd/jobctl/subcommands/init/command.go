package init

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	prof "github.com/opst/jobtracker/cmd/jobctl/config/profiles"
	"github.com/opst/jobtracker/cmd/jobctl/subcommands/common"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
	"gopkg.in/yaml.v3"
)

const ARG_PROFILE_FILE = "PROFILE_FILE"

type option struct {
	projectDir string
}

// WithProjectDir changes where .jobprofile is written. Default is the current directory.
func WithProjectDir(dir string) func(*option) *option {
	return func(o *option) *option {
		o.projectDir = dir
		return o
	}
}

func New(options ...func(*option) *option) (flarc.Command, error) {
	opt := &option{projectDir: "."}
	for _, o := range options {
		opt = o(opt)
	}

	return flarc.NewCommand(
		"Initialize this directory to track jobs with the given profile.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_PROFILE_FILE, Required: true,
				Help: "filepath to job profile, which you received from your admin.",
			},
		},
		common.NewTaskWithCommonFlag(Task(opt.projectDir)),
		flarc.WithDescription(`
Register a job profile into your profile store.

"job profile" is a YAML file telling the root URL of the job API,
its CA certificate and your access token.
"{{ .Command }}" registers the given profile into your profile store,
and writes .jobprofile in this directory so that later commands use it.

The name of the profile is given by "--profile" ( default: current filepath ).
`),
	)
}

func Task(projectDir string) common.TaskWithCommonFlag[struct{}] {
	return func(
		ctx context.Context,
		logger logrus.FieldLogger,
		cf common.CommonFlags,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		profFile := cl.Args()[ARG_PROFILE_FILE][0]

		profStore, err := prof.LoadProfileStore(cf.ProfileStore)
		if errors.Is(err, prof.ErrProfileStoreNotFound) {
			profStore = prof.ProfileStore{}
		} else if err != nil {
			return fmt.Errorf("failed to load profile store (%s): %w", cf.ProfileStore, err)
		}

		newProf := new(prof.JobProfile)
		{
			content, err := os.ReadFile(profFile)
			if err != nil {
				return fmt.Errorf("failed to read profile (%s): %w", profFile, err)
			}
			if err := yaml.Unmarshal(content, newProf); err != nil {
				return fmt.Errorf("failed to parse profile (%s): %w", profFile, err)
			}
		}
		if err := newProf.Verify(time.Now()); err != nil {
			return fmt.Errorf("%s: %w", profFile, err)
		}
		if exp, ok := newProf.TokenExpiry(); ok {
			logger.WithField("expiry", exp.Format(time.RFC3339)).Info("the token will be expired")
		}

		profStore[cf.Profile] = newProf
		if err := profStore.Save(cf.ProfileStore); err != nil {
			return fmt.Errorf("failed to save profile store (%s): %w", cf.ProfileStore, err)
		}
		logger.Infof("profile %s is saved to %s", cf.Profile, cf.ProfileStore)

		projectFile := filepath.Join(projectDir, common.ProjectFile)
		if err := os.WriteFile(projectFile, []byte(cf.Profile+"\n"), os.FileMode(0600)); err != nil {
			return fmt.Errorf("failed to write %s: %w", projectFile, err)
		}
		return nil
	}
}
