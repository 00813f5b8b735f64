package capture

import (
	"context"
	"net/textproto"
	"time"
)

// FetchRequest describes one HTTP request made on behalf of a provider.
type FetchRequest struct {
	// Method defaults to GET when empty.
	Method string

	// URL is the absolute request URL.
	URL string

	// Header carries extra request headers (e.g. If-None-Match).
	Header map[string]string

	// Timeout bounds this call as a wall-clock deadline. Zero applies the
	// fetcher's default.
	Timeout time.Duration

	// MaxBytes caps how much of the response body is read; 0 = unlimited.
	MaxBytes int64

	// StopAfter, when non-empty, ends the body read as soon as the marker
	// has been observed (used for head-only reads). The returned body
	// includes everything up to and including the marker.
	StopAfter string
}

// FetchResponse is the observed response. Status interpretation belongs to
// the caller: providers treat non-2xx as fatal for primary fetches but may
// special-case statuses such as 304.
type FetchResponse struct {
	StatusCode int
	Header     map[string]string
	Body       []byte
}

// HeaderValue returns the response header value for name, matching
// case-insensitively by canonical MIME header key.
func (r *FetchResponse) HeaderValue(name string) string {
	if r == nil || r.Header == nil {
		return ""
	}
	return r.Header[textproto.CanonicalMIMEHeaderKey(name)]
}

// OK reports whether the status code is in the 2xx range.
func (r *FetchResponse) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher retrieves content over HTTP on behalf of capture providers.
type Fetcher interface {
	// Fetch performs the request and returns the observed response.
	// It returns an error only for transport-level failures (connection,
	// timeout, invalid request); any received status code is returned as
	// a response. The context controls cancellation.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResponse, error)

	// Close releases underlying resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}
