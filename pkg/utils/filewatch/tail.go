package filewatch

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Tail reads the file line by line, and then follows lines appended to it,
// as "tail -f" does.
//
// onLine is called for each line without its line terminator ("\n" or "\r\n").
// A line not terminated yet is held until it is terminated,
// or until the file is removed or renamed.
//
// Tail returns nil when the file is removed or renamed,
// and ctx.Err() when ctx is done.
func Tail(ctx context.Context, path string, onLine func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		return err
	}

	r := bufio.NewReader(f)
	partial := new(strings.Builder)

	// drain reads lines until EOF.
	drain := func() error {
		for {
			chunk, err := r.ReadString('\n')
			partial.WriteString(chunk)
			if errors.Is(err, io.EOF) {
				return nil
			} else if err != nil {
				return err
			}
			line := strings.TrimSuffix(strings.TrimSuffix(partial.String(), "\n"), "\r")
			partial.Reset()
			onLine(line)
		}
	}
	flush := func() {
		if partial.Len() == 0 {
			return
		}
		onLine(strings.TrimSuffix(partial.String(), "\r"))
		partial.Reset()
	}

	if err := drain(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			gone := ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
			if ev.Has(fsnotify.Chmod) {
				// removing a file opened by us is notified as chmod on linux.
				if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
					gone = true
				}
			}
			if ev.Has(fsnotify.Write) || gone {
				if err := drain(); err != nil {
					return err
				}
			}
			if gone {
				flush()
				return nil
			}
		}
	}
}
