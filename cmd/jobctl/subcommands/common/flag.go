package common

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ProjectFile is the name of the file telling which profile the directory uses.
const ProjectFile = ".jobprofile"

type CommonFlags struct {
	Profile      string `flag:"profile" help:"job profile name to use"`
	ProfileStore string `flag:"profile-store" help:"path to job profile store file"`
	Verbose      bool   `flag:"verbose" alias:"v" help:"show causes of errors in detail"`
}

type commonFlagDetection struct {
	home string
}

type CommonFlagDetectionOption func(*commonFlagDetection) *commonFlagDetection

func WithHome(home string) CommonFlagDetectionOption {
	return func(opt *commonFlagDetection) *commonFlagDetection {
		opt.home = home
		return opt
	}
}

// Flags detects default values of CommonFlags.
//
// The profile is read from the first line of the nearest .jobprofile file
// in from or its ancestors. When there are not, it is the absolute path of from.
func Flags(from string, opt ...CommonFlagDetectionOption) (CommonFlags, error) {
	detparam := commonFlagDetection{}
	for _, o := range opt {
		detparam = *o(&detparam)
	}

	home := detparam.home
	if home == "" {
		if _home, err := os.UserHomeDir(); err == nil {
			home = _home
		}
	}

	if _from, err := filepath.Abs(from); err == nil {
		from = _from
	}

	profile := from
	for searchpath := from; ; {
		candidate := path.Join(searchpath, ProjectFile)
		if s, err := os.Stat(candidate); err == nil && s.Mode().IsRegular() {
			content, err := os.ReadFile(candidate)
			if err != nil {
				return CommonFlags{}, err
			}
			if p := strings.TrimSpace(strings.SplitN(string(content), "\n", 2)[0]); p != "" {
				profile = p
			}
			break
		}

		next := path.Dir(searchpath)
		if next == searchpath {
			break
		}
		searchpath = next
	}

	return CommonFlags{
		Profile:      profile,
		ProfileStore: path.Join(home, ".jobtracker", "profile"),
	}, nil
}
