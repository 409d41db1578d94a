package snapshot_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/opst/jobtracker/pkg/tracker"
	"github.com/opst/jobtracker/pkg/tracker/snapshot"
	"github.com/opst/jobtracker/pkg/utils/try"
)

// connect to the database given with JOBTRACKER_TEST_PGURL.
//
// Tests are skipped when it is not set.
func connect(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("JOBTRACKER_TEST_PGURL")
	if url == "" {
		t.Skip("JOBTRACKER_TEST_PGURL is not set")
	}
	pool := try.To(pgxpool.Connect(ctx, url)).OrFatal(t)
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DROP TABLE IF EXISTS "tracker_snapshot"`)
		pool.Close()
	})
	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS "tracker_snapshot"`); err != nil {
		t.Fatal(err)
	}
	return pool
}

func TestPostgresStore(t *testing.T) {
	t.Run("when the table is not there, it returns ErrNotFound", func(t *testing.T) {
		ctx := context.Background()
		pool := connect(ctx, t)

		testee := snapshot.NewPostgresStore(pool, "test")
		if _, err := testee.Load(ctx); !errors.Is(err, snapshot.ErrNotFound) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it loads what it saved, by name", func(t *testing.T) {
		ctx := context.Background()
		pool := connect(ctx, t)

		testee := snapshot.NewPostgresStore(pool, "test")
		if err := testee.Init(ctx); err != nil {
			t.Fatal(err)
		}
		if err := testee.Init(ctx); err != nil {
			t.Fatal("Init is not idempotent:", err)
		}

		if _, err := testee.Load(ctx); !errors.Is(err, snapshot.ErrNotFound) {
			t.Errorf("unexpected error: %v", err)
		}

		if err := testee.Save(ctx, tracker.Persisted{Version: tracker.SnapshotVersion}); err != nil {
			t.Fatal(err)
		}
		if err := testee.Save(ctx, example()); err != nil {
			t.Fatal(err)
		}

		got := try.To(testee.Load(ctx)).OrFatal(t)
		want := example()
		if !cmp.Equal(got, want) {
			t.Errorf("snapshot: %s", cmp.Diff(want, got))
		}

		other := snapshot.NewPostgresStore(pool, "other")
		if _, err := other.Load(ctx); !errors.Is(err, snapshot.ErrNotFound) {
			t.Errorf("snapshot of another name is loaded: %v", err)
		}
	})

	t.Run("it keeps the version as written", func(t *testing.T) {
		ctx := context.Background()
		pool := connect(ctx, t)

		testee := snapshot.NewPostgresStore(pool, "test")
		if err := testee.Init(ctx); err != nil {
			t.Fatal(err)
		}
		future := tracker.Persisted{Version: tracker.SnapshotVersion + 1, SavedAt: time.Now()}
		if err := testee.Save(ctx, future); err != nil {
			t.Fatal(err)
		}
		got := try.To(testee.Load(ctx)).OrFatal(t)
		if got.Version != future.Version {
			t.Errorf("version: %d", got.Version)
		}
	})
}
