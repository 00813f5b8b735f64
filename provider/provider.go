// Package provider contains the nine capture providers. Each provider owns
// one acquisition strategy behind the capture.Provider contract and keeps
// its parsing state local to a single Capture call.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/clefhq/capture"
)

// newMetadata returns a SourceMetadata stamped with the provider id and the
// current wall-clock time.
func newMetadata(providerID string) capture.SourceMetadata {
	return capture.SourceMetadata{
		ProviderID: providerID,
		CapturedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// clampRaw returns data truncated to the configured raw-byte cap, or nil
// when raw data was not requested.
func clampRaw(data []byte, config *capture.CaptureConfig) []byte {
	if config == nil || !config.IncludeRawData {
		return nil
	}
	if config.MaxRawBytes > 0 && len(data) > config.MaxRawBytes {
		return data[:config.MaxRawBytes]
	}
	return data
}

// fetchPage performs a primary fetch: transport failures and non-2xx
// statuses are both fatal.
func fetchPage(ctx context.Context, fetcher capture.Fetcher, req *capture.FetchRequest) (*capture.FetchResponse, error) {
	resp, err := fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, capture.Errorf(capture.EUNAVAILABLE, "HTTP %d fetching %s", resp.StatusCode, req.URL)
	}
	return resp, nil
}

// formatBytes renders a byte count as B, KB, or MB.
func formatBytes(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

// Option-bag readers. Provider options arrive as decoded JSON, so numbers
// may be float64 or int depending on the source.

func optString(opts map[string]any, key, def string) string {
	if v, ok := opts[key].(string); ok {
		return v
	}
	return def
}

func optBool(opts map[string]any, key string, def bool) bool {
	if v, ok := opts[key].(bool); ok {
		return v
	}
	return def
}

func optInt(opts map[string]any, key string, def int) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

func optFloat(opts map[string]any, key string, def float64) float64 {
	switch v := opts[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}
