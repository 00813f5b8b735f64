package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/clefhq/capture"
)

// Ensure LoggingProvider implements capture.Provider.
var _ capture.Provider = (*LoggingProvider)(nil)

// LoggingProvider wraps a Provider with capture logging.
type LoggingProvider struct {
	next   capture.Provider
	logger *slog.Logger
}

// NewLoggingProvider creates a new LoggingProvider.
func NewLoggingProvider(next capture.Provider, logger *slog.Logger) *LoggingProvider {
	return &LoggingProvider{next: next, logger: logger}
}

// ID delegates to the wrapped provider.
func (p *LoggingProvider) ID() string {
	return p.next.ID()
}

// DisplayName delegates to the wrapped provider.
func (p *LoggingProvider) DisplayName() string {
	return p.next.DisplayName()
}

// Supports delegates to the wrapped provider.
func (p *LoggingProvider) Supports(input *capture.CaptureInput) bool {
	return p.next.Supports(input)
}

// Capture delegates to the wrapped provider and logs the outcome.
func (p *LoggingProvider) Capture(ctx context.Context, input *capture.CaptureInput, config *capture.CaptureConfig) (*capture.CaptureItem, error) {
	begin := time.Now()
	item, err := p.next.Capture(ctx, input, config)
	if err != nil {
		p.logger.Error("capture",
			"provider", p.next.ID(),
			"kind", input.Kind,
			"code", capture.ErrorCode(err),
			"err", capture.ErrorMessage(err),
			"duration", time.Since(begin),
		)
		return nil, err
	}
	p.logger.Info("capture",
		"provider", p.next.ID(),
		"kind", input.Kind,
		"bytes", len(item.Content),
		"duration", time.Since(begin),
	)
	return item, nil
}
