package filewatch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opst/jobtracker/pkg/utils/filewatch"
)

func TestUntilModifyContext(t *testing.T) {
	type when struct {
		// watch the directory instead of the file
		watchDir bool

		modify func(t *testing.T, dir, file string)
	}

	theory := func(when when) func(*testing.T) {
		return func(t *testing.T) {
			dir := t.TempDir()
			file := filepath.Join(dir, "file")
			if err := os.WriteFile(file, []byte("before"), 0644); err != nil {
				t.Fatal(err)
			}

			target := file
			if when.watchDir {
				target = dir
			}
			ctx, cancel, err := filewatch.UntilModifyContext(context.Background(), target)
			if err != nil {
				t.Fatal(err)
			}
			defer cancel()

			if err := ctx.Err(); err != nil {
				t.Fatalf("cancelled before modification: %v", err)
			}

			when.modify(t, dir, file)

			select {
			case <-ctx.Done():
				if context.Cause(ctx) == nil {
					t.Error("no cause")
				}
			case <-time.After(5 * time.Second):
				t.Fatal("context is not cancelled")
			}
		}
	}

	write := func(t *testing.T, _, file string) {
		if err := os.WriteFile(file, []byte("after"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	create := func(t *testing.T, dir, _ string) {
		if err := os.WriteFile(filepath.Join(dir, "new"), []byte{}, 0644); err != nil {
			t.Fatal(err)
		}
	}
	remove := func(t *testing.T, _, file string) {
		if err := os.Remove(file); err != nil {
			t.Fatal(err)
		}
	}
	rename := func(t *testing.T, dir, file string) {
		if err := os.Rename(file, filepath.Join(dir, "renamed")); err != nil {
			t.Fatal(err)
		}
	}
	chmod := func(t *testing.T, _, file string) {
		// surely change mode despite of umask.
		if err := os.Chmod(file, os.FileMode(0o700)); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(file, os.FileMode(0o644)); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("when the watched file is written, it cancels", theory(when{modify: write}))
	t.Run("when a file in the watched directory is written, it cancels", theory(when{watchDir: true, modify: write}))
	t.Run("when a file is created in the watched directory, it cancels", theory(when{watchDir: true, modify: create}))
	t.Run("when the watched file is removed, it cancels", theory(when{modify: remove}))
	t.Run("when a file in the watched directory is removed, it cancels", theory(when{watchDir: true, modify: remove}))
	t.Run("when the watched file is renamed, it cancels", theory(when{modify: rename}))
	t.Run("when the watched file is chmod-ed, it cancels", theory(when{modify: chmod}))
}

func TestUntilModifyContext_NoSuchFile(t *testing.T) {
	ctx, cancel, err := filewatch.UntilModifyContext(
		context.Background(), filepath.Join(t.TempDir(), "missing"),
	)
	if err == nil {
		cancel()
		t.Fatal("expected error, but not")
	}
	if ctx != nil || cancel != nil {
		t.Error("context or cancel is returned with error")
	}
}

func TestUntilModifyContext_CancelledByCaller(t *testing.T) {
	ctx, cancel, err := filewatch.UntilModifyContext(context.Background(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	<-ctx.Done()
	if cause := context.Cause(ctx); cause != context.Canceled {
		t.Errorf("unexpected cause: %v", cause)
	}
}
