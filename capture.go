// Package capture normalizes heterogeneous inputs — web pages, uploaded
// files, forwarded email messages, polled API endpoints, and OS share
// intents — into one uniform captured-item shape: extracted text,
// structured source metadata, and an optional raw payload.
//
// This package contains domain types and capability interfaces following
// Ben Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., http/, rod/,
// goquery/), and the capture providers themselves live in provider/.
package capture

import (
	"context"
	"time"
)

// Input kinds. Exactly one variant of CaptureInput is active per instance;
// providers pattern-match on Kind.
const (
	KindURL         = "url"
	KindFile        = "file"
	KindEmail       = "email"
	KindAPIEndpoint = "api_endpoint"
	KindShareIntent = "share_intent"
)

// CaptureInput is a tagged union describing what to capture.
// Only the fields belonging to the active Kind are meaningful.
type CaptureInput struct {
	Kind string `json:"kind"`

	// Kind == "url": also used by "share_intent" for the shared link.
	URL       string            `json:"url,omitempty"`
	Selection *ElementSelection `json:"selection,omitempty"`

	// Kind == "file"
	Path     string `json:"path,omitempty"`
	Data     []byte `json:"data,omitempty"`
	MIMEHint string `json:"mimeHint,omitempty"`

	// Kind == "email"
	Raw string `json:"raw,omitempty"`

	// Kind == "api_endpoint"
	EndpointURL string            `json:"endpointUrl,omitempty"`
	Method      string            `json:"method,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Cursor      string            `json:"cursor,omitempty"`

	// Kind == "share_intent"
	Text  string       `json:"text,omitempty"`
	Files []SharedFile `json:"files,omitempty"`
}

// SharedFile is a file received via the OS share sheet.
type SharedFile struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// ElementSelection targets a specific page element (e.g., a screenshot of
// one container rather than the whole page).
type ElementSelection struct {
	Selector string `json:"selector"`
	Rect     *Rect  `json:"rect,omitempty"`
}

// Rect is a pixel region in page coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CaptureConfig carries per-call knobs. It is immutable for the duration
// of one Capture call.
type CaptureConfig struct {
	// MaxRawBytes caps RawData size; 0 means unlimited.
	MaxRawBytes int `json:"maxRawBytes"`

	// IncludeRawData requests the original source bytes alongside the
	// extracted content.
	IncludeRawData bool `json:"includeRawData"`

	// TimeoutMS bounds each network call made by the provider. Zero lets
	// the provider apply its own default.
	TimeoutMS int64 `json:"timeoutMs"`

	// ProviderOptions maps provider id to an arbitrary options bag.
	ProviderOptions map[string]map[string]any `json:"providerOptions,omitempty"`
}

// Timeout returns the configured per-call timeout, or def when unset.
func (c *CaptureConfig) Timeout(def time.Duration) time.Duration {
	if c == nil || c.TimeoutMS <= 0 {
		return def
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Options returns the options bag for the given provider id, or nil.
func (c *CaptureConfig) Options(providerID string) map[string]any {
	if c == nil {
		return nil
	}
	return c.ProviderOptions[providerID]
}

// SourceMetadata describes where captured content came from.
// ProviderID always equals the producing provider's ID, and CapturedAt is
// always set (ISO-8601) at completion of the Capture call.
type SourceMetadata struct {
	SourceURL   string         `json:"sourceUrl,omitempty"`
	Title       string         `json:"title,omitempty"`
	Author      string         `json:"author,omitempty"`
	PublishedAt string         `json:"publishedAt,omitempty"`
	SiteName    string         `json:"siteName,omitempty"`
	Favicon     string         `json:"favicon,omitempty"`
	Description string         `json:"description,omitempty"`
	MIMEType    string         `json:"mimeType,omitempty"`
	Language    string         `json:"language,omitempty"`
	CapturedAt  string         `json:"capturedAt"`
	ProviderID  string         `json:"providerId"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// CaptureItem is the product of a capture operation. Content may be empty
// but is never absent; RawData is present only when requested via
// CaptureConfig.IncludeRawData and the source bytes were obtainable.
type CaptureItem struct {
	Content        string         `json:"content"`
	SourceMetadata SourceMetadata `json:"sourceMetadata"`
	RawData        []byte         `json:"rawData,omitempty"`
}

// Provider is the contract every capture strategy implements.
type Provider interface {
	// ID returns the unique identifier for this provider.
	ID() string

	// DisplayName returns a human-readable name.
	DisplayName() string

	// Supports reports whether this provider can handle the input.
	Supports(input *CaptureInput) bool

	// Capture executes the acquisition strategy and returns the captured
	// item. Inputs the provider does not support fail with EINVALID.
	// The context controls cancellation; network calls are additionally
	// bounded by the configured timeout.
	Capture(ctx context.Context, input *CaptureInput, config *CaptureConfig) (*CaptureItem, error)
}
