// Package mem provides an in-memory implementation of capture.CursorStore.
// Poll state is lost on restart; use the sqlite store when persistence
// matters.
package mem

import (
	"context"
	"sync"

	"github.com/clefhq/capture"
)

// Ensure CursorStore implements capture.CursorStore at compile time.
var _ capture.CursorStore = (*CursorStore)(nil)

// CursorStore keeps per-endpoint poll state in a map. Updates to the same
// key are serialized, so read-modify-write sequences never interleave.
type CursorStore struct {
	mu     sync.Mutex
	states map[string]capture.CursorState
}

// NewCursorStore creates an empty CursorStore.
func NewCursorStore() *CursorStore {
	return &CursorStore{states: make(map[string]capture.CursorState)}
}

// Get returns the stored state for key. An unknown key returns the zero
// state, not an error, so first polls of an endpoint need no special case.
func (s *CursorStore) Get(ctx context.Context, key string) (capture.CursorState, error) {
	if err := ctx.Err(); err != nil {
		return capture.CursorState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[key], nil
}

// Update applies fn to the state for key and stores the result. When fn
// returns an error the state is left unchanged.
func (s *CursorStore) Update(ctx context.Context, key string, fn func(*capture.CursorState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[key]
	if err := fn(&state); err != nil {
		return err
	}
	s.states[key] = state
	return nil
}
