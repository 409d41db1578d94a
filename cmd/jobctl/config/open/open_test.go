package open_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/opst/jobtracker/cmd/jobctl/config/open"
	"github.com/opst/jobtracker/pkg/utils/try"
)

func TestNewSafeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile")
	if err := os.WriteFile(path, []byte("old content"), 0644); err != nil {
		t.Fatal(err)
	}

	f := try.To(open.NewSafeFile(path)).OrFatal(t)
	if _, err := f.WriteString("new"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if got := string(try.To(os.ReadFile(path)).OrFatal(t)); got != "new" {
		t.Errorf("content: %q", got)
	}
	if runtime.GOOS != "windows" {
		if perm := try.To(os.Stat(path)).OrFatal(t).Mode().Perm(); perm != 0600 {
			t.Errorf("permission: %o", perm)
		}
	}
}

func TestReplace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "profile")

	if err := open.Replace(path, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := open.Replace(path, []byte("second")); err != nil {
		t.Fatal(err)
	}

	if got := string(try.To(os.ReadFile(path)).OrFatal(t)); got != "second" {
		t.Errorf("content: %q", got)
	}
	if runtime.GOOS != "windows" {
		if perm := try.To(os.Stat(path)).OrFatal(t).Mode().Perm(); perm != 0600 {
			t.Errorf("permission: %o", perm)
		}
	}
	if entries := try.To(os.ReadDir(dir)).OrFatal(t); len(entries) != 1 {
		t.Errorf("temporary files are left: %v", entries)
	}
}
