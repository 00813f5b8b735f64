package mock

import (
	"context"

	"github.com/clefhq/capture"
)

var _ capture.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of capture.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, req *capture.FetchRequest) (*capture.FetchResponse, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, req *capture.FetchRequest) (*capture.FetchResponse, error) {
	return f.FetchFn(ctx, req)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}
