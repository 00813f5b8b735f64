package slog_test

import (
	"context"
	"testing"

	"github.com/clefhq/capture"
	"github.com/clefhq/capture/mock"
	"github.com/clefhq/capture/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingProvider_Capture(t *testing.T) {
	t.Parallel()

	t.Run("logs successful captures", func(t *testing.T) {
		t.Parallel()

		next := &mock.Provider{
			IDFn: func() string { return "web_article" },
			CaptureFn: func(_ context.Context, _ *capture.CaptureInput, _ *capture.CaptureConfig) (*capture.CaptureItem, error) {
				return &capture.CaptureItem{Content: "body"}, nil
			},
		}
		logger, buf := newTestLogger()

		p := slog.NewLoggingProvider(next, logger)
		item, err := p.Capture(context.Background(), &capture.CaptureInput{Kind: capture.KindURL}, nil)
		require.NoError(t, err)
		assert.Equal(t, "body", item.Content)

		out := buf.String()
		assert.Contains(t, out, "capture")
		assert.Contains(t, out, "provider=web_article")
		assert.Contains(t, out, "kind=url")
		assert.Contains(t, out, "bytes=4")
	})

	t.Run("logs the error code on failure", func(t *testing.T) {
		t.Parallel()

		next := &mock.Provider{
			IDFn: func() string { return "web_article" },
			CaptureFn: func(_ context.Context, _ *capture.CaptureInput, _ *capture.CaptureConfig) (*capture.CaptureItem, error) {
				return nil, capture.Errorf(capture.ETIMEOUT, "deadline exceeded")
			},
		}
		logger, buf := newTestLogger()

		p := slog.NewLoggingProvider(next, logger)
		_, err := p.Capture(context.Background(), &capture.CaptureInput{Kind: capture.KindURL}, nil)
		require.Error(t, err)

		out := buf.String()
		assert.Contains(t, out, "level=ERROR")
		assert.Contains(t, out, "code=timeout")
		assert.Contains(t, out, "deadline exceeded")
	})

	t.Run("identity methods delegate", func(t *testing.T) {
		t.Parallel()

		next := &mock.Provider{
			IDFn:          func() string { return "p" },
			DisplayNameFn: func() string { return "Provider P" },
			SupportsFn:    func(input *capture.CaptureInput) bool { return input.Kind == capture.KindFile },
		}
		logger, _ := newTestLogger()

		p := slog.NewLoggingProvider(next, logger)
		assert.Equal(t, "p", p.ID())
		assert.Equal(t, "Provider P", p.DisplayName())
		assert.True(t, p.Supports(&capture.CaptureInput{Kind: capture.KindFile}))
		assert.False(t, p.Supports(&capture.CaptureInput{Kind: capture.KindURL}))
	})
}
