// Package slog provides logging decorators for capture services using the
// standard library's structured logging.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/clefhq/capture"
)

// Ensure LoggingFetcher implements capture.Fetcher.
var _ capture.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with request logging.
type LoggingFetcher struct {
	next   capture.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next capture.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, req *capture.FetchRequest) (*capture.FetchResponse, error) {
	begin := time.Now()
	resp, err := f.next.Fetch(ctx, req)
	if err != nil {
		f.logger.Error("fetch",
			"url", req.URL,
			"err", err.Error(),
			"duration", time.Since(begin),
		)
		return nil, err
	}
	f.logger.Info("fetch",
		"url", req.URL,
		"status", resp.StatusCode,
		"bytes", len(resp.Body),
		"duration", time.Since(begin),
	)
	return resp, nil
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
