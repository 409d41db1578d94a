// Package daemon is the configuration of jobtrackd.
package daemon

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidApiRoot = errors.New("daemon config: apiRoot is invalid")
var ErrInvalidInterval = errors.New("daemon config: polling interval is invalid")
var ErrInvalidSnapshot = errors.New("daemon config: snapshot is invalid")

const (
	DefaultPort         = "8080"
	DefaultSnapshotName = "default"
)

// Snapshot tells where the tracker state is saved.
//
// At most one of File and DBURI is set. If neither is, the state is not saved.
type Snapshot struct {
	File string

	DBURI string

	// Name identifies the snapshot in the database. Default is "default".
	Name string
}

type Config struct {
	// ApiRoot is the root URL of the job API.
	ApiRoot *url.URL

	// bearer token for the job API. Empty means no Authorization header.
	Token string

	// CA certificate file (PEM) to verify the job API. Empty means system CAs.
	CAFile string

	ServerPort string

	PollInterval time.Duration

	FollowRunning bool

	Snapshot Snapshot

	LogLevel string
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		ApiRoot string `yaml:"apiRoot"`
		Token   string `yaml:"token,omitempty"`
		CAFile  string `yaml:"caFile,omitempty"`
		Server  struct {
			Port string `yaml:"port,omitempty"`
		} `yaml:"server,omitempty"`
		Polling struct {
			Interval      string `yaml:"interval,omitempty"`
			FollowRunning bool   `yaml:"followRunning,omitempty"`
		} `yaml:"polling,omitempty"`
		Snapshot struct {
			File  string `yaml:"file,omitempty"`
			DBURI string `yaml:"dbUri,omitempty"`
			Name  string `yaml:"name,omitempty"`
		} `yaml:"snapshot,omitempty"`
		LogLevel string `yaml:"loglevel,omitempty"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	apiRoot, err := url.Parse(raw.ApiRoot)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidApiRoot, err)
	}
	if !apiRoot.IsAbs() || apiRoot.Hostname() == "" {
		return fmt.Errorf("%w: not absolute: %q", ErrInvalidApiRoot, raw.ApiRoot)
	}
	if apiRoot.Scheme != "http" && apiRoot.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme: %s", ErrInvalidApiRoot, apiRoot.Scheme)
	}

	interval := 10 * time.Second
	if raw.Polling.Interval != "" {
		d, err := time.ParseDuration(raw.Polling.Interval)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: should be positive: %s", ErrInvalidInterval, raw.Polling.Interval)
		}
		interval = d
	}

	if raw.Snapshot.File != "" && raw.Snapshot.DBURI != "" {
		return fmt.Errorf("%w: both of file and dbUri are set", ErrInvalidSnapshot)
	}
	name := raw.Snapshot.Name
	if name == "" {
		name = DefaultSnapshotName
	}

	port := raw.Server.Port
	if port == "" {
		port = DefaultPort
	}

	*c = Config{
		ApiRoot:       apiRoot,
		Token:         raw.Token,
		CAFile:        raw.CAFile,
		ServerPort:    port,
		PollInterval:  interval,
		FollowRunning: raw.Polling.FollowRunning,
		Snapshot: Snapshot{
			File:  raw.Snapshot.File,
			DBURI: raw.Snapshot.DBURI,
			Name:  name,
		},
		LogLevel: raw.LogLevel,
	}
	return nil
}

// Load reads configuration from the file.
func Load(file string) (Config, error) {
	f, err := os.Open(file)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg := Config{}
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", file, err)
	}
	return cfg, nil
}
