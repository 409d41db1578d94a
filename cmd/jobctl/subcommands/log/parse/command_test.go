package parse_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/opst/jobtracker/cmd/jobctl/subcommands/internal/commandline"
	log_parse "github.com/opst/jobtracker/cmd/jobctl/subcommands/log/parse"
	"github.com/opst/jobtracker/pkg/logparse"
)

// syncBuffer is a bytes.Buffer which can be read while written.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestParseCommand(t *testing.T) {
	t.Run("it prints entries of the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "train.log")
		content := "hello\n[10:00:00] epoch:3, OA: 91.2%, F1: 0.9\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		stdout := new(bytes.Buffer)
		err := log_parse.Task(
			context.Background(),
			commandline.MockCommandline[log_parse.Flags]{
				Stdout_: stdout,
				Stderr_: new(bytes.Buffer),
				Args_:   map[string][]string{log_parse.ARG_FILE: {path}},
			},
			nil,
		)
		if err != nil {
			t.Fatal(err)
		}

		want := logparse.Format(logparse.Parse("hello")) + "\n" +
			logparse.Format(logparse.Parse("[10:00:00] epoch:3, OA: 91.2%, F1: 0.9")) + "\n"
		if diff := cmp.Diff(want, stdout.String()); diff != "" {
			t.Errorf("stdout (-want +got):\n%s", diff)
		}
	})

	t.Run("when the file does not exist, it returns error", func(t *testing.T) {
		err := log_parse.Task(
			context.Background(),
			commandline.MockCommandline[log_parse.Flags]{
				Stdout_: new(bytes.Buffer),
				Stderr_: new(bytes.Buffer),
				Args_:   map[string][]string{log_parse.ARG_FILE: {filepath.Join(t.TempDir(), "missing.log")}},
			},
			nil,
		)
		if !os.IsNotExist(err) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("with --follow, it prints appended lines until the file is removed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "train.log")
		if err := os.WriteFile(path, []byte("first\n"), 0600); err != nil {
			t.Fatal(err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		stdout := new(syncBuffer)
		done := make(chan error, 1)
		go func() {
			done <- log_parse.Task(
				ctx,
				commandline.MockCommandline[log_parse.Flags]{
					Stdout_: stdout,
					Stderr_: new(bytes.Buffer),
					Flags_:  log_parse.Flags{Follow: true},
					Args_:   map[string][]string{log_parse.ARG_FILE: {path}},
				},
				nil,
			)
		}()

		waitFor := func(s string) {
			t.Helper()
			for !strings.Contains(stdout.String(), s) {
				select {
				case <-ctx.Done():
					t.Fatalf("timeout waiting %q: got %q", s, stdout.String())
				case <-time.After(10 * time.Millisecond):
				}
			}
		}
		waitFor("first")

		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.WriteString("epoch:1, loss:0.5\n"); err != nil {
			t.Fatal(err)
		}
		f.Close()
		waitFor("epoch 1")

		if err := os.Remove(path); err != nil {
			t.Fatal(err)
		}
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		case <-ctx.Done():
			t.Fatal("it does not stop")
		}
	})
}
