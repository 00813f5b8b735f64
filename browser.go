package capture

import (
	"context"
	"time"
)

// Wait conditions for page navigation before a screenshot is taken.
const (
	WaitLoad             = "load"
	WaitDOMContentLoaded = "domcontentloaded"
	WaitNetworkIdle      = "networkidle"
)

// ScreenshotRequest describes one screenshot capture.
type ScreenshotRequest struct {
	URL string

	// Selector, when non-empty, captures only the matching element.
	// A missing element is an EUNSUPPORTED failure.
	Selector string

	// FullPage captures the whole scrollable page instead of the viewport.
	// Ignored when Selector is set.
	FullPage bool

	// Format is "png" or "jpeg"; Quality applies to jpeg only.
	Format  string
	Quality int

	ViewportWidth     int
	ViewportHeight    int
	DeviceScaleFactor float64

	// WaitUntil is one of the Wait* constants.
	WaitUntil string

	// Timeout bounds navigation and capture as a wall-clock deadline.
	Timeout time.Duration
}

// ScreenshotResult carries the captured image and page title.
type ScreenshotResult struct {
	Data  []byte
	Title string
}

// Browser is the headless-browser capability consumed by the screenshot
// provider. Implementations may use browser automation; absence of the
// capability is fatal for that provider.
type Browser interface {
	// Screenshot navigates to the URL, waits for the requested condition,
	// and captures the page, viewport, or element as image bytes.
	Screenshot(ctx context.Context, req *ScreenshotRequest) (*ScreenshotResult, error)

	// Close releases browser resources.
	// Must be called when the Browser is no longer needed.
	Close() error
}
