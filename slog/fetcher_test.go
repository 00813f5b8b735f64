package slog_test

import (
	"bytes"
	"context"
	"errors"
	stdslog "log/slog"
	"testing"

	"github.com/clefhq/capture"
	"github.com/clefhq/capture/mock"
	"github.com/clefhq/capture/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() (*stdslog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return stdslog.New(stdslog.NewTextHandler(&buf, nil)), &buf
}

func TestLoggingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("logs successful fetches", func(t *testing.T) {
		t.Parallel()

		next := &mock.Fetcher{
			FetchFn: func(_ context.Context, req *capture.FetchRequest) (*capture.FetchResponse, error) {
				return &capture.FetchResponse{StatusCode: 200, Body: []byte("hello")}, nil
			},
		}
		logger, buf := newTestLogger()

		f := slog.NewLoggingFetcher(next, logger)
		resp, err := f.Fetch(context.Background(), &capture.FetchRequest{URL: "https://example.com/"})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		out := buf.String()
		assert.Contains(t, out, "fetch")
		assert.Contains(t, out, "url=https://example.com/")
		assert.Contains(t, out, "status=200")
		assert.Contains(t, out, "bytes=5")
		assert.Contains(t, out, "duration=")
	})

	t.Run("logs failures with the error", func(t *testing.T) {
		t.Parallel()

		next := &mock.Fetcher{
			FetchFn: func(_ context.Context, req *capture.FetchRequest) (*capture.FetchResponse, error) {
				return nil, capture.Errorf(capture.EUNAVAILABLE, "connection refused")
			},
		}
		logger, buf := newTestLogger()

		f := slog.NewLoggingFetcher(next, logger)
		_, err := f.Fetch(context.Background(), &capture.FetchRequest{URL: "https://example.com/"})
		require.Error(t, err)
		assert.Equal(t, capture.EUNAVAILABLE, capture.ErrorCode(err))

		out := buf.String()
		assert.Contains(t, out, "level=ERROR")
		assert.Contains(t, out, "connection refused")
	})
}

func TestLoggingFetcher_Close(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("close failed")
	next := &mock.Fetcher{CloseFn: func() error { return wantErr }}
	logger, _ := newTestLogger()

	f := slog.NewLoggingFetcher(next, logger)
	assert.Equal(t, wantErr, f.Close())
}
