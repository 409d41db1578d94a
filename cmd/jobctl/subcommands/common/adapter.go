package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/opst/jobtracker/cmd/jobctl/config/profiles"
	cerr "github.com/opst/jobtracker/cmd/jobctl/errors"
	"github.com/opst/jobtracker/cmd/jobctl/rest"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger logrus.FieldLogger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

// NewLogger creates a logger writing to stderr of the commandline.
//
// When verbose, debug logs are also written.
func NewLogger[T any](cl flarc.Commandline[T], verbose bool) logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(cl.Stderr())
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l.WithField("command", cl.Fullname())
}

func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		logger := NewLogger(cl, commonFlag.Verbose)
		err := task(ctx, logger, commonFlag, cl, newpos)

		var v cerr.Verbose
		if err != nil && errors.As(err, &v) {
			logger.Debug(v.Verbose())
		}
		return err
	}
}

type Task[T any] func(
	ctx context.Context,
	logger logrus.FieldLogger,
	client rest.JobClient,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTask creates a task with the client for the profile selected by CommonFlags.
func NewTask[T any](task Task[T]) flarc.Task[T] {
	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger logrus.FieldLogger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		store, err := profiles.LoadProfileStore(commonFlag.ProfileStore)
		if err != nil {
			if errors.Is(err, profiles.ErrProfileStoreNotFound) {
				return fmt.Errorf(
					"%w. Please try `jobctl init` first. Ask your admin to get job profile",
					err,
				)
			}
			return fmt.Errorf(
				"%w: failed to load profile store (%s)",
				err, commonFlag.ProfileStore,
			)
		}
		prof, ok := store[commonFlag.Profile]
		if !ok {
			return fmt.Errorf(
				"profile '%s' not found in the profile store (%s)",
				commonFlag.Profile, commonFlag.ProfileStore,
			)
		}

		client, err := rest.NewClient(prof)
		if err != nil {
			return fmt.Errorf(
				"%w: failed to create job client. Your profile (%s in %s) can be broken or expired.\n\nTry `jobctl init` again with a new profile",
				err, commonFlag.Profile, commonFlag.ProfileStore,
			)
		}
		return task(ctx, logger, client, cl, params)
	})
}
