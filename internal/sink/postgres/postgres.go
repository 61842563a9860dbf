// Package postgres upserts flattened records into flattened_users.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"userflat/internal/sink"
	"userflat/internal/userrecord/models"
	"userflat/pkg/platform/sentinel"
	txcontext "userflat/pkg/platform/tx"
	"userflat/pkg/requestcontext"
)

// DriverName is the database/sql driver lib/pq registers when this package is
// imported.
const DriverName = "postgres"

// Schema creates the sink table. The record column is json rather than jsonb
// so key order survives the round trip.
const Schema = `
CREATE TABLE IF NOT EXISTS flattened_users (
	username   TEXT PRIMARY KEY,
	record     JSON NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// Clock overrides the updated_at timestamp. Without one the request time from
// ctx is used.
type Clock func() time.Time

// Sink stores the latest flattened record per username.
type Sink struct {
	db    *sql.DB
	clock Clock
}

// Option configures a Sink.
type Option func(*Sink)

func WithClock(clock Clock) Option {
	return func(s *Sink) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(db *sql.DB, opts ...Option) *Sink {
	s := &Sink{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Name() string { return "postgres" }

func (s *Sink) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer joins a transaction carried by ctx, so a caller can publish as part
// of its own unit of work.
func (s *Sink) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// EnsureSchema creates the table when missing.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure flattened_users schema: %w", classify(err))
	}
	return nil
}

func (s *Sink) Publish(ctx context.Context, record *models.Record) error {
	username, err := sink.Key(record)
	if err != nil {
		return err
	}
	payload, err := record.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	query := `
		INSERT INTO flattened_users (username, record, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET
			record = EXCLUDED.record,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, username, string(payload), s.now(ctx)); err != nil {
		return fmt.Errorf("upsert flattened user: %w", classify(err))
	}
	return nil
}

// Get returns the stored record for username, or sentinel.ErrNotFound.
func (s *Sink) Get(ctx context.Context, username string) (*models.Record, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM flattened_users WHERE username = $1`, username,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find flattened user: %w", classify(err))
	}
	rec := models.NewRecord()
	if err := rec.UnmarshalJSON(payload); err != nil {
		return nil, fmt.Errorf("decode stored record: %w", err)
	}
	return rec, nil
}

// classify tags connection-level failures as sentinel.ErrUnavailable.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, pqErr.Message)
		}
	}
	return err
}
