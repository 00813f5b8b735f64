package mem_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/clefhq/capture"
	"github.com/clefhq/capture/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorStore(t *testing.T) {
	t.Parallel()

	t.Run("unknown key yields zero state", func(t *testing.T) {
		t.Parallel()

		s := mem.NewCursorStore()
		state, err := s.Get(context.Background(), "https://api.example.com/items")
		require.NoError(t, err)
		assert.Equal(t, capture.CursorState{}, state)
	})

	t.Run("update persists the modified state", func(t *testing.T) {
		t.Parallel()

		s := mem.NewCursorStore()
		err := s.Update(context.Background(), "k", func(state *capture.CursorState) error {
			state.LastCursor = "abc"
			state.LastPollAt = "2026-01-01T00:00:00Z"
			return nil
		})
		require.NoError(t, err)

		state, err := s.Get(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", state.LastCursor)
		assert.Equal(t, "2026-01-01T00:00:00Z", state.LastPollAt)
	})

	t.Run("failed update leaves state unchanged", func(t *testing.T) {
		t.Parallel()

		s := mem.NewCursorStore()
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

	t.Run("concurrent updates do not lose writes", func(t *testing.T) {
		t.Parallel()

		s := mem.NewCursorStore()
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Update(context.Background(), "k", func(state *capture.CursorState) error {
					state.LastCursor += "x"
					return nil
				})
			}()
		}
		wg.Wait()

		state, err := s.Get(context.Background(), "k")
		require.NoError(t, err)
		assert.Len(t, state.LastCursor, 50)
	})
}
