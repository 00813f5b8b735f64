package provider

import (
	"context"
	"time"

	"github.com/clefhq/capture"
	"github.com/clefhq/capture/goquery"
)

const webArticleTimeout = 30 * time.Second

// Ensure WebArticle implements capture.Provider at compile time.
var _ capture.Provider = (*WebArticle)(nil)

// WebArticle captures the readable article content of a web page: the page
// is fetched, boilerplate is stripped, and the highest-scoring content
// container becomes the plain-text body.
type WebArticle struct {
	fetcher   capture.Fetcher
	extractor capture.Extractor
}

// NewWebArticle creates a new WebArticle provider.
func NewWebArticle(fetcher capture.Fetcher, extractor capture.Extractor) *WebArticle {
	return &WebArticle{fetcher: fetcher, extractor: extractor}
}

func (p *WebArticle) ID() string { return "web_article" }

func (p *WebArticle) DisplayName() string { return "Web Article (Readability)" }

// Supports accepts URL inputs without an element selection; selections
// belong to the screenshot provider.
func (p *WebArticle) Supports(input *capture.CaptureInput) bool {
	return input.Kind == capture.KindURL && input.Selection == nil
}

func (p *WebArticle) Capture(ctx context.Context, input *capture.CaptureInput, config *capture.CaptureConfig) (*capture.CaptureItem, error) {
	if !p.Supports(input) {
		return nil, capture.Errorf(capture.EINVALID, "web_article does not support input kind %q", input.Kind)
	}

	resp, err := fetchPage(ctx, p.fetcher, &capture.FetchRequest{
		URL:     input.URL,
		Timeout: config.Timeout(webArticleTimeout),
	})
	if err != nil {
		return nil, err
	}
	html := string(resp.Body)

	result, err := p.extractor.Extract(html)
	if err != nil {
		return nil, err
	}

	pageMeta := goquery.ExtractPageMetadata(html, input.URL)

	meta := newMetadata(p.ID())
	meta.SourceURL = input.URL
	meta.Title = pageMeta.Title
	if meta.Title == "" {
		meta.Title = "Untitled"
	}
	meta.Author = pageMeta.Author
	meta.PublishedAt = pageMeta.PublishedAt
	meta.SiteName = pageMeta.SiteName
	meta.Favicon = pageMeta.Favicon
	meta.Description = pageMeta.Description
	meta.Language = pageMeta.Language

	return &capture.CaptureItem{
		Content:        result.Text,
		SourceMetadata: meta,
		RawData:        clampRaw(resp.Body, config),
	}, nil
}
