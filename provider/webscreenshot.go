package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/clefhq/capture"
)

const webScreenshotTimeout = 30 * time.Second

// Ensure WebScreenshot implements capture.Provider at compile time.
var _ capture.Provider = (*WebScreenshot)(nil)

// WebScreenshot captures a visual snapshot of a page through the
// headless-browser capability. Content carries a short description; the
// image bytes go into RawData when raw data is requested.
type WebScreenshot struct {
	browser capture.Browser
}

// NewWebScreenshot creates a new WebScreenshot provider. The browser may be
// nil, in which case every capture fails with EUNAVAILABLE.
func NewWebScreenshot(browser capture.Browser) *WebScreenshot {
	return &WebScreenshot{browser: browser}
}

func (p *WebScreenshot) ID() string { return "web_screenshot" }

func (p *WebScreenshot) DisplayName() string { return "Web Screenshot" }

func (p *WebScreenshot) Supports(input *capture.CaptureInput) bool {
	return input.Kind == capture.KindURL
}

func (p *WebScreenshot) Capture(ctx context.Context, input *capture.CaptureInput, config *capture.CaptureConfig) (*capture.CaptureItem, error) {
	if !p.Supports(input) {
		return nil, capture.Errorf(capture.EINVALID, "web_screenshot does not support input kind %q", input.Kind)
	}
	if p.browser == nil {
		return nil, capture.Errorf(capture.EUNAVAILABLE, "headless browser capability is not available")
	}

	opts := config.Options(p.ID())
	format := optString(opts, "format", "png")
	if format != "png" && format != "jpeg" {
		return nil, capture.Errorf(capture.EUNSUPPORTED, "unsupported screenshot format %q", format)
	}

	req := &capture.ScreenshotRequest{
		URL:               input.URL,
		FullPage:          optBool(opts, "fullPage", false),
		Format:            format,
		Quality:           optInt(opts, "quality", 80),
		ViewportWidth:     optInt(opts, "viewportWidth", 1280),
		ViewportHeight:    optInt(opts, "viewportHeight", 800),
		DeviceScaleFactor: optFloat(opts, "deviceScaleFactor", 2),
		WaitUntil:         optString(opts, "waitUntil", capture.WaitNetworkIdle),
		Timeout:           config.Timeout(webScreenshotTimeout),
	}

	selector := "none"
	if input.Selection != nil {
		req.Selector = input.Selection.Selector
		selector = input.Selection.Selector
	}

	result, err := p.browser.Screenshot(ctx, req)
	if err != nil {
		return nil, err
	}

	content := fmt.Sprintf(
		"[Screenshot of %s]\nFormat: %s\nViewport: %dx%d@%gx\nFull page: %t\nSelector: %s",
		input.URL, format, req.ViewportWidth, req.ViewportHeight, req.DeviceScaleFactor, req.FullPage, selector,
	)

	meta := newMetadata(p.ID())
	meta.SourceURL = input.URL
	meta.Title = result.Title
	meta.MIMEType = "image/" + format
	meta.Extra = map[string]any{
		"viewport": map[string]any{
			"width":             req.ViewportWidth,
			"height":            req.ViewportHeight,
			"deviceScaleFactor": req.DeviceScaleFactor,
		},
		"fullPage": req.FullPage,
		"selector": selector,
	}

	return &capture.CaptureItem{
		Content:        content,
		SourceMetadata: meta,
		RawData:        clampRaw(result.Data, config),
	}, nil
}
