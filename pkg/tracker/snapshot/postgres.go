package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/opst/jobtracker/pkg/tracker"
)

// Queryer sends SQL.
//
// This is extracted from *pgxpool.Pool, *pgxpool.Conn and pgx.Tx .
type Queryer interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type PostgresStore struct {
	conn Queryer
	name string
}

var _ Store = &PostgresStore{}

// NewPostgresStore returns a Store keeping snapshots in the table "tracker_snapshot".
//
// Each snapshot is identified by name, so one database can serve more than one jobtrackd.
func NewPostgresStore(conn Queryer, name string) *PostgresStore {
	return &PostgresStore{conn: conn, name: name}
}

// Init creates the table, if it does not exist.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS "tracker_snapshot" (
			"name" text PRIMARY KEY,
			"version" integer NOT NULL,
			"body" jsonb NOT NULL,
			"updated_at" timestamp with time zone NOT NULL
		)
	`)
	return err
}

func (s *PostgresStore) Load(ctx context.Context) (tracker.Persisted, error) {
	var version int
	var body []byte
	if err := s.conn.QueryRow(
		ctx,
		`SELECT "version", "body" FROM "tracker_snapshot" WHERE "name" = $1`,
		s.name,
	).Scan(&version, &body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tracker.Persisted{}, ErrNotFound
		}
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
			if pgerr.Code == pgerrcode.UndefinedTable {
				return tracker.Persisted{}, ErrNotFound
			}
		}
		return tracker.Persisted{}, err
	}

	p := tracker.Persisted{}
	if err := json.Unmarshal(body, &p); err != nil {
		return tracker.Persisted{}, fmt.Errorf("snapshot %s is broken: %w", s.name, err)
	}
	// the column is what the row was written as.
	p.Version = version
	return p, nil
}

func (s *PostgresStore) Save(ctx context.Context, p tracker.Persisted) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.conn.Exec(
		ctx,
		`
		INSERT INTO "tracker_snapshot" ("name", "version", "body", "updated_at")
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ("name") DO UPDATE
		SET "version" = EXCLUDED."version",
			"body" = EXCLUDED."body",
			"updated_at" = EXCLUDED."updated_at"
		`,
		s.name, p.Version, string(body), p.SavedAt,
	)
	return err
}
