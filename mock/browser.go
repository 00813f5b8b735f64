package mock

import (
	"context"

	"github.com/clefhq/capture"
)

var _ capture.Browser = (*Browser)(nil)

// Browser is a mock implementation of capture.Browser.
type Browser struct {
	ScreenshotFn func(ctx context.Context, req *capture.ScreenshotRequest) (*capture.ScreenshotResult, error)
	CloseFn      func() error
}

func (b *Browser) Screenshot(ctx context.Context, req *capture.ScreenshotRequest) (*capture.ScreenshotResult, error) {
	return b.ScreenshotFn(ctx, req)
}

func (b *Browser) Close() error {
	if b.CloseFn == nil {
		return nil
	}
	return b.CloseFn()
}
