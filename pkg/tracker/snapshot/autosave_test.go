package snapshot_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	testctx "github.com/opst/jobtracker/internal/testutils/context"
	"github.com/opst/jobtracker/pkg/tracker"
	"github.com/opst/jobtracker/pkg/tracker/snapshot"
	"github.com/sirupsen/logrus"
)

type fakeSource struct {
	changes chan struct{}
	mu      sync.Mutex
	selects string
}

func (f *fakeSource) Subscribe() (<-chan struct{}, func()) {
	return f.changes, func() {}
}

func (f *fakeSource) Persist() tracker.Persisted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return tracker.Persisted{Version: tracker.SnapshotVersion, SelectedJobId: f.selects}
}

func (f *fakeSource) change(selected string) {
	f.mu.Lock()
	f.selects = selected
	f.mu.Unlock()
	f.changes <- struct{}{}
}

type memoryStore struct {
	mu    sync.Mutex
	saved []tracker.Persisted
	fail  error
}

func (m *memoryStore) Load(context.Context) (tracker.Persisted, error) {
	return tracker.Persisted{}, snapshot.ErrNotFound
}

func (m *memoryStore) Save(_ context.Context, p tracker.Persisted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		err := m.fail
		m.fail = nil
		return err
	}
	m.saved = append(m.saved, p)
	return nil
}

func (m *memoryStore) selections() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := []string{}
	for _, p := range m.saved {
		ret = append(ret, p.SelectedJobId)
	}
	return ret
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	testctx.Eventually(ctx, t, 5*time.Millisecond, cond)
}

func TestAutoSave(t *testing.T) {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	t.Run("it saves when the source is changed, and stops with context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		src := &fakeSource{changes: make(chan struct{}, 1)}
		store := &memoryStore{}

		done := make(chan error, 1)
		go func() { done <- snapshot.AutoSave(ctx, src, store, 10*time.Millisecond, quiet) }()

		src.change("train_001")
		waitUntil(t, func() bool { return len(store.selections()) == 1 })
		src.change("train_002")
		waitUntil(t, func() bool { return len(store.selections()) == 2 })

		time.Sleep(50 * time.Millisecond)
		if got := store.selections(); len(got) != 2 || got[0] != "train_001" || got[1] != "train_002" {
			t.Errorf("unexpected saves: %v", got)
		}

		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Fatal("it does not stop")
		}
	})

	t.Run("when saving fails, it saves on the next change", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		src := &fakeSource{changes: make(chan struct{}, 1)}
		store := &memoryStore{fail: errors.New("fake error")}

		go snapshot.AutoSave(ctx, src, store, 10*time.Millisecond, quiet)

		src.change("train_001")
		waitUntil(t, func() bool {
			store.mu.Lock()
			defer store.mu.Unlock()
			return store.fail == nil
		})
		src.change("train_002")
		waitUntil(t, func() bool { return len(store.selections()) == 1 })
		if got := store.selections(); got[0] != "train_002" {
			t.Errorf("unexpected saves: %v", got)
		}
	})
}
