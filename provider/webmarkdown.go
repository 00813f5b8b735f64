package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	gq "github.com/PuerkitoBio/goquery"
	"github.com/clefhq/capture"
	"github.com/clefhq/capture/goquery"
)

const webMarkdownTimeout = 30 * time.Second

// Ensure WebMarkdown implements capture.Provider at compile time.
var _ capture.Provider = (*WebMarkdown)(nil)

// WebMarkdown captures a page as Markdown with a YAML frontmatter block.
// The content region is picked by simple tag preference (article, main,
// body) rather than scoring.
type WebMarkdown struct {
	fetcher   capture.Fetcher
	converter capture.Converter
}

// NewWebMarkdown creates a new WebMarkdown provider.
func NewWebMarkdown(fetcher capture.Fetcher, converter capture.Converter) *WebMarkdown {
	return &WebMarkdown{fetcher: fetcher, converter: converter}
}

func (p *WebMarkdown) ID() string { return "web_markdown" }

func (p *WebMarkdown) DisplayName() string { return "Web Markdown" }

func (p *WebMarkdown) Supports(input *capture.CaptureInput) bool {
	return input.Kind == capture.KindURL
}

func (p *WebMarkdown) Capture(ctx context.Context, input *capture.CaptureInput, config *capture.CaptureConfig) (*capture.CaptureItem, error) {
	if !p.Supports(input) {
		return nil, capture.Errorf(capture.EINVALID, "web_markdown does not support input kind %q", input.Kind)
	}

	resp, err := fetchPage(ctx, p.fetcher, &capture.FetchRequest{
		URL:     input.URL,
		Timeout: config.Timeout(webMarkdownTimeout),
	})
	if err != nil {
		return nil, err
	}
	html := string(resp.Body)

	articleHTML := extractArticleRegion(html)
	pageMeta := goquery.ExtractPageMetadata(html, input.URL)

	markdown, err := p.converter.Convert(articleHTML)
	if err != nil {
		return nil, err
	}

	content := frontmatter(pageMeta) + "\n" + strings.TrimSpace(markdown)

	meta := newMetadata(p.ID())
	meta.SourceURL = input.URL
	meta.Title = pageMeta.Title
	if meta.Title == "" {
		meta.Title = "Untitled"
	}
	meta.Author = pageMeta.Author
	meta.PublishedAt = pageMeta.PublishedAt
	meta.SiteName = pageMeta.SiteName
	meta.Description = pageMeta.Description

	return &capture.CaptureItem{
		Content:        content,
		SourceMetadata: meta,
		RawData:        clampRaw(resp.Body, config),
	}, nil
}

// extractArticleRegion returns the inner HTML of the first article, main,
// or body element, preferring the more specific tag. Falls back to the
// whole document when none parse out.
func extractArticleRegion(html string) string {
	doc, err := gq.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	for _, tag := range []string{"article", "main", "body"} {
		sel := doc.Find(tag).First()
		if sel.Length() == 0 {
			continue
		}
		if inner, err := sel.Html(); err == nil && strings.TrimSpace(inner) != "" {
			return inner
		}
	}
	return html
}

// frontmatter renders the YAML metadata block. String values get minimal
// quote-escaping only; this is deliberately not a YAML serializer.
func frontmatter(meta *goquery.PageMetadata) string {
	lines := []string{"---"}
	title := meta.Title
	if title == "" {
		title = "Untitled"
	}
	lines = append(lines, fmt.Sprintf("title: %s", quoteYAML(title)))
	if meta.Author != "" {
		lines = append(lines, fmt.Sprintf("author: %s", quoteYAML(meta.Author)))
	}
	if meta.PublishedAt != "" {
		lines = append(lines, fmt.Sprintf("date: %s", meta.PublishedAt))
	}
	if meta.SiteName != "" {
		lines = append(lines, fmt.Sprintf("source: %s", quoteYAML(meta.SiteName)))
	}
	if meta.Description != "" {
		lines = append(lines, fmt.Sprintf("description: %s", quoteYAML(meta.Description)))
	}
	if len(meta.Keywords) > 0 {
		quoted := make([]string, len(meta.Keywords))
		for i, k := range meta.Keywords {
			quoted[i] = quoteYAML(k)
		}
		lines = append(lines, fmt.Sprintf("tags: [%s]", strings.Join(quoted, ", ")))
	}
	lines = append(lines, fmt.Sprintf("captured_at: %s", time.Now().UTC().Format(time.RFC3339)))
	lines = append(lines, "---")
	return strings.Join(lines, "\n")
}

// quoteYAML wraps v in double quotes. Newlines collapse to spaces so
// multi-line meta values cannot break the single-line frontmatter fields.
func quoteYAML(v string) string {
	v = strings.ReplaceAll(v, "\r\n", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}
