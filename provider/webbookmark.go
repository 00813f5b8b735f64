package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clefhq/capture"
	"github.com/clefhq/capture/goquery"
)

const (
	webBookmarkTimeout = 15 * time.Second

	// headReadCap bounds the bookmark fetch; the read also stops at the
	// closing head tag, whichever comes first.
	headReadCap = 64 * 1024
)

// Ensure WebBookmark implements capture.Provider at compile time.
var _ capture.Provider = (*WebBookmark)(nil)

// WebBookmark captures page metadata only: it reads the response up to
// </head> or 64 KB, extracts Open Graph and meta fields, and renders a
// short Markdown summary instead of full content.
type WebBookmark struct {
	fetcher capture.Fetcher
}

// NewWebBookmark creates a new WebBookmark provider.
func NewWebBookmark(fetcher capture.Fetcher) *WebBookmark {
	return &WebBookmark{fetcher: fetcher}
}

func (p *WebBookmark) ID() string { return "web_bookmark" }

func (p *WebBookmark) DisplayName() string { return "Web Bookmark (Metadata Only)" }

func (p *WebBookmark) Supports(input *capture.CaptureInput) bool {
	return input.Kind == capture.KindURL
}

func (p *WebBookmark) Capture(ctx context.Context, input *capture.CaptureInput, config *capture.CaptureConfig) (*capture.CaptureItem, error) {
	if !p.Supports(input) {
		return nil, capture.Errorf(capture.EINVALID, "web_bookmark does not support input kind %q", input.Kind)
	}

	resp, err := fetchPage(ctx, p.fetcher, &capture.FetchRequest{
		URL:       input.URL,
		Timeout:   config.Timeout(webBookmarkTimeout),
		MaxBytes:  headReadCap,
		StopAfter: "</head>",
	})
	if err != nil {
		return nil, err
	}

	pageMeta := goquery.ExtractPageMetadata(string(resp.Body), input.URL)

	title := pageMeta.Title
	if title == "" {
		title = input.URL
	}
	canonical := pageMeta.Canonical
	if canonical == "" {
		canonical = input.URL
	}

	lines := []string{fmt.Sprintf("# %s", title)}
	if pageMeta.Description != "" {
		lines = append(lines, fmt.Sprintf("\n> %s", pageMeta.Description))
	}
	lines = append(lines, fmt.Sprintf("\nURL: %s", canonical))
	if pageMeta.SiteName != "" {
		lines = append(lines, fmt.Sprintf("Site: %s", pageMeta.SiteName))
	}
	if pageMeta.Image != "" {
		lines = append(lines, fmt.Sprintf("Image: %s", pageMeta.Image))
	}
	if pageMeta.Favicon != "" {
		lines = append(lines, fmt.Sprintf("Favicon: %s", pageMeta.Favicon))
	}

	meta := newMetadata(p.ID())
	meta.SourceURL = canonical
	meta.Title = title
	meta.SiteName = pageMeta.SiteName
	meta.Favicon = pageMeta.Favicon
	meta.Description = pageMeta.Description
	meta.Extra = map[string]any{
		"themeColor": pageMeta.ThemeColor,
		"ogImage":    pageMeta.Image,
	}

	return &capture.CaptureItem{
		Content:        strings.Join(lines, "\n"),
		SourceMetadata: meta,
	}, nil
}
