// Package session implements the client's session token lifecycle:
// durable storage of the access/refresh pair, single-flight refresh,
// authorized dispatch with one coordinated retry, proactive refresh
// scheduling, and reconciliation with other processes sharing the same
// database.
package session

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ragchat/internal/client/models"
	"github.com/dmitrijs2005/ragchat/internal/dbx"
	"github.com/dmitrijs2005/ragchat/internal/logging"
)

// sessionSlot is the single named slot holding the serialized session.
const sessionSlot = "session"

// Record is the raw stored state of the slot. An empty Value is the
// tombstone left by Clear; Seq increases on every mutation and Origin
// identifies the writing context.
type Record struct {
	Value  []byte
	Seq    int64
	Origin string
}

// Store is the durable, cross-process record of the current session.
// Pure storage: no network calls, no scheduling.
type Store struct {
	db     *sql.DB
	origin string
	log    logging.Logger
}

// NewStore binds a store to db. origin is this context's unique ID; it is
// recorded with every write so watchers can tell their own mutations from
// external ones.
func NewStore(db *sql.DB, origin string, log logging.Logger) *Store {
	return &Store{db: db, origin: origin, log: log}
}

// Origin returns the context ID this store writes with.
func (s *Store) Origin() string {
	return s.origin
}

// Read returns the stored session, or nil when there is none. A corrupted
// or invalid record is discarded as if the slot were empty; it is never
// surfaced as an error.
func (s *Store) Read(ctx context.Context) (*models.Session, error) {
	rec, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil || len(rec.Value) == 0 {
		return nil, nil
	}

	var sess models.Session
	if err := json.Unmarshal(rec.Value, &sess); err != nil {
		s.log.Warn(ctx, "discarding corrupted session record", "error", err)
		if cerr := s.Clear(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, nil
	}
	if !sess.Valid() {
		return nil, nil
	}
	return &sess, nil
}

// Write replaces the stored session wholesale. Partial updates are not
// supported: the token pair is atomic.
func (s *Store) Write(ctx context.Context, sess *models.Session) error {
	if !sess.Valid() {
		return fmt.Errorf("store: refusing to write invalid session")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("store: encode session: %w", err)
	}
	return s.put(ctx, data)
}

// Clear removes the stored session. Idempotent: clearing an already empty
// slot is a no-op and does not produce a change event.
func (s *Store) Clear(ctx context.Context) error {
	return s.put(ctx, nil)
}

// Snapshot returns the raw slot record, or nil when the slot was never
// written. Watchers use it to build change events carrying the previous
// and new raw values.
func (s *Store) Snapshot(ctx context.Context) (*Record, error) {
	rec := &Record{}
	err := s.db.QueryRowContext(ctx,
		`SELECT value, seq, origin FROM auth_session WHERE slot = ?`, sessionSlot,
	).Scan(&rec.Value, &rec.Seq, &rec.Origin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read slot: %w", err)
	}
	return rec, nil
}

// put upserts the slot value, bumping the sequence number. Writing the
// value already stored is a no-op so redundant writes never ripple out to
// other contexts.
func (s *Store) put(ctx context.Context, value []byte) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var existing []byte
		err := tx.QueryRowContext(ctx,
			`SELECT value FROM auth_session WHERE slot = ?`, sessionSlot,
		).Scan(&existing)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("store: read slot: %w", err)
		}
		if err == nil && bytes.Equal(existing, value) {
			return nil
		}

		if value == nil {
			value = []byte{}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO auth_session (slot, value, seq, origin, updated_at)
			VALUES (?, ?, 1, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(slot) DO UPDATE SET
				value = excluded.value,
				seq = auth_session.seq + 1,
				origin = excluded.origin,
				updated_at = excluded.updated_at
		`, sessionSlot, value, s.origin)
		if err != nil {
			return fmt.Errorf("store: write slot: %w", err)
		}
		return nil
	})
}
