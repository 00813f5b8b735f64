package mock

import (
	"context"

	"github.com/clefhq/capture"
)

var _ capture.Provider = (*Provider)(nil)

// Provider is a mock implementation of capture.Provider.
type Provider struct {
	IDFn          func() string
	DisplayNameFn func() string
	SupportsFn    func(input *capture.CaptureInput) bool
	CaptureFn     func(ctx context.Context, input *capture.CaptureInput, config *capture.CaptureConfig) (*capture.CaptureItem, error)
}

func (p *Provider) ID() string {
	return p.IDFn()
}

func (p *Provider) DisplayName() string {
	return p.DisplayNameFn()
}

func (p *Provider) Supports(input *capture.CaptureInput) bool {
	return p.SupportsFn(input)
}

func (p *Provider) Capture(ctx context.Context, input *capture.CaptureInput, config *capture.CaptureConfig) (*capture.CaptureItem, error) {
	return p.CaptureFn(ctx, input, config)
}
