package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/opst/jobtracker/pkg/tracker"
	"gopkg.in/yaml.v3"
)

type fileStore struct {
	path string
}

// NewFileStore returns a Store keeping a snapshot in a YAML file.
//
// The file is replaced as a whole on each Save, and is readable only for its owner.
func NewFileStore(path string) Store {
	return &fileStore{path: path}
}

func (f *fileStore) Load(ctx context.Context) (tracker.Persisted, error) {
	buf, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return tracker.Persisted{}, ErrNotFound
	} else if err != nil {
		return tracker.Persisted{}, err
	}

	p := tracker.Persisted{}
	if err := yaml.Unmarshal(buf, &p); err != nil {
		return tracker.Persisted{}, fmt.Errorf("snapshot %s is broken: %w", f.path, err)
	}
	return p, nil
}

func (f *fileStore) Save(ctx context.Context, p tracker.Persisted) error {
	buf, err := yaml.Marshal(p)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, os.FileMode(0700)); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(os.FileMode(0600)); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
