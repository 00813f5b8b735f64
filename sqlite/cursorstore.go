package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clefhq/capture"
)

// Ensure CursorStore implements capture.CursorStore at compile time.
var _ capture.CursorStore = (*CursorStore)(nil)

// CursorStore persists per-endpoint poll state in SQLite. Updates run as
// transactional read-modify-write, and the single-connection pool serializes
// writers, so concurrent updates to the same key never interleave.
type CursorStore struct {
	db *DB
}

// NewCursorStore creates a CursorStore backed by db.
func NewCursorStore(db *DB) *CursorStore {
	return &CursorStore{db: db}
}

// Get returns the stored state for key. An unknown key returns the zero
// state, not an error.
func (s *CursorStore) Get(ctx context.Context, key string) (capture.CursorState, error) {
	var state capture.CursorState
	err := s.db.QueryRowContext(ctx, `
		SELECT last_cursor, last_etag, last_hash, last_poll_at
		FROM cursor_states
		WHERE endpoint_key = ?`, key,
	).Scan(&state.LastCursor, &state.LastETag, &state.LastHash, &state.LastPollAt)
	if errors.Is(err, sql.ErrNoRows) {
		return capture.CursorState{}, nil
	}
	if err != nil {
		return capture.CursorState{}, fmt.Errorf("failed to load cursor state: %w", err)
	}
	return state, nil
}

// Update applies fn to the state for key inside a transaction and stores the
// result. When fn returns an error the transaction rolls back and the stored
// state is unchanged.
func (s *CursorStore) Update(ctx context.Context, key string, fn func(*capture.CursorState) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var state capture.CursorState
	err = tx.QueryRowContext(ctx, `
		SELECT last_cursor, last_etag, last_hash, last_poll_at
		FROM cursor_states
		WHERE endpoint_key = ?`, key,
	).Scan(&state.LastCursor, &state.LastETag, &state.LastHash, &state.LastPollAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to load cursor state: %w", err)
	}

	if err := fn(&state); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cursor_states (endpoint_key, last_cursor, last_etag, last_hash, last_poll_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(endpoint_key) DO UPDATE SET
			last_cursor = excluded.last_cursor,
			last_etag = excluded.last_etag,
			last_hash = excluded.last_hash,
			last_poll_at = excluded.last_poll_at`,
		key, state.LastCursor, state.LastETag, state.LastHash, state.LastPollAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store cursor state: %w", err)
	}

	return tx.Commit()
}
