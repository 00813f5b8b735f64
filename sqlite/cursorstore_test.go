package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/clefhq/capture"
	"github.com/clefhq/capture/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCursorStore(t *testing.T) {
	t.Parallel()

	t.Run("unknown key yields zero state", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewCursorStore(openDB(t))
		state, err := s.Get(context.Background(), "https://api.example.com/items")
		require.NoError(t, err)
		assert.Equal(t, capture.CursorState{}, state)
	})

	t.Run("update persists across reads", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewCursorStore(openDB(t))
		err := s.Update(context.Background(), "k", func(state *capture.CursorState) error {
			state.LastCursor = "c1"
			state.LastETag = `"v1"`
			state.LastHash = "deadbeef"
			state.LastPollAt = "2026-01-01T00:00:00Z"
			return nil
		})
		require.NoError(t, err)

		state, err := s.Get(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "c1", state.LastCursor)
		assert.Equal(t, `"v1"`, state.LastETag)
		assert.Equal(t, "deadbeef", state.LastHash)
		assert.Equal(t, "2026-01-01T00:00:00Z", state.LastPollAt)
	})

	t.Run("second update sees the first", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewCursorStore(openDB(t))
		require.NoError(t, s.Update(context.Background(), "k", func(state *capture.CursorState) error {
			state.LastCursor = "c1"
			return nil
		}))
		require.NoError(t, s.Update(context.Background(), "k", func(state *capture.CursorState) error {
			assert.Equal(t, "c1", state.LastCursor)
			state.LastPollAt = "2026-01-02T00:00:00Z"
			return nil
		}))

		state, err := s.Get(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "c1", state.LastCursor)
		assert.Equal(t, "2026-01-02T00:00:00Z", state.LastPollAt)
	})

	t.Run("failed update rolls back", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewCursorStore(openDB(t))
		require.NoError(t, s.Update(context.Background(), "k", func(state *capture.CursorState) error {
			state.LastCursor = "keep"
			return nil
		}))

		err := s.Update(context.Background(), "k", func(state *capture.CursorState) error {
			state.LastCursor = "discard"
			return errors.New("boom")
		})
		require.Error(t, err)

		state, err := s.Get(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "keep", state.LastCursor)
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewCursorStore(openDB(t))
		require.NoError(t, s.Update(context.Background(), "a", func(state *capture.CursorState) error {
			state.LastCursor = "for-a"
			return nil
		}))

		state, err := s.Get(context.Background(), "b")
		require.NoError(t, err)
		assert.Equal(t, capture.CursorState{}, state)
	})
}
