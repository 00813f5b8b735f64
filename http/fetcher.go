// Package http provides an HTTP-based implementation of capture.Fetcher.
// It supports bounded body reads, head-only reads via a stop marker, and
// optional per-host rate limiting.
package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/clefhq/capture"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the default wall-clock deadline per request.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent identifies capture traffic to origin servers.
const DefaultUserAgent = "clef-capture/1.0"

// readChunkSize is the body read granularity for stop-marker scans.
const readChunkSize = 8 * 1024

// Ensure Fetcher implements capture.Fetcher at compile time.
var _ capture.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves content from URLs using net/http. It does not execute
// JavaScript and is suitable for static content.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	limiter   *hostLimiter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the default timeout for requests that don't carry one.
// Defaults to DefaultTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithRateLimit enforces at most rps requests per second per host.
// Unset means no rate limiting.
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		f.limiter = newHostLimiter(rps)
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	// Per-request deadlines come from contexts so each call can carry its
	// own timeout; the client itself has none.
	f.client = &http.Client{}

	return f
}

// Fetch performs the request and returns the observed response. Transport
// failures return an error; any received status is returned as a response.
func (f *Fetcher) Fetch(ctx context.Context, req *capture.FetchRequest) (*capture.FetchResponse, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = f.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, capture.Errorf(capture.EINVALID, "invalid request for %s: %v", req.URL, err)
	}
	httpReq.Header.Set("User-Agent", f.userAgent)
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, httpReq.URL.Host); err != nil {
			return nil, wrapTransportErr(req.URL, timeout, err)
		}
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, wrapTransportErr(req.URL, timeout, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body, req.MaxBytes, req.StopAfter)
	if err != nil {
		return nil, wrapTransportErr(req.URL, timeout, err)
	}

	header := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		header[k] = resp.Header.Get(k)
	}

	return &capture.FetchResponse{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       body,
	}, nil
}

// Close releases resources. For the HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// readBody reads up to maxBytes of r (0 = unlimited), stopping early once
// stopAfter has been observed. The stop marker scan happens on the
// accumulated buffer so markers split across chunk boundaries are found.
func readBody(r io.Reader, maxBytes int64, stopAfter string) ([]byte, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes)
	}
	if stopAfter == "" {
		return io.ReadAll(r)
	}

	marker := []byte(stopAfter)
	var buf []byte
	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if idx := bytes.Index(buf, marker); idx >= 0 {
				return buf[:idx+len(stopAfter)], nil
			}
		}
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// wrapTransportErr maps deadline expiry to ETIMEOUT and everything else to
// EINTERNAL, keeping the URL in the message.
func wrapTransportErr(url string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return capture.Errorf(capture.ETIMEOUT, "timeout after %s fetching %s", timeout, url)
	}
	return capture.Errorf(capture.EINTERNAL, "fetching %s: %v", url, err)
}

// hostLimiter provides per-host rate limiting using token buckets. Each
// host gets its own limiter with a burst of 1, so concurrent requests to
// different hosts proceed independently.
type hostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

func newHostLimiter(rps float64) *hostLimiter {
	return &hostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows a request to the host.
// Returns an error if the context is canceled before the wait completes.
func (h *hostLimiter) Wait(ctx context.Context, host string) error {
	h.mu.Lock()
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(h.rps), 1)
		h.limiters[host] = limiter
	}
	h.mu.Unlock()

	return limiter.Wait(ctx)
}
