package mock

import (
	"context"

	"github.com/clefhq/capture"
)

var _ capture.CursorStore = (*CursorStore)(nil)

// CursorStore is a mock implementation of capture.CursorStore.
type CursorStore struct {
	GetFn    func(ctx context.Context, key string) (capture.CursorState, error)
	UpdateFn func(ctx context.Context, key string, fn func(*capture.CursorState) error) error
}

func (s *CursorStore) Get(ctx context.Context, key string) (capture.CursorState, error) {
	return s.GetFn(ctx, key)
}

func (s *CursorStore) Update(ctx context.Context, key string, fn func(*capture.CursorState) error) error {
	return s.UpdateFn(ctx, key, fn)
}
