package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	gq "github.com/PuerkitoBio/goquery"
	"github.com/clefhq/capture"
	"github.com/clefhq/capture/goquery"
	"golang.org/x/sync/errgroup"
)

const (
	webFullPageTimeout = 60 * time.Second

	// inlineFetchParallelism bounds concurrent image fetches during
	// inlining. Per-resource failures stay independent.
	inlineFetchParallelism = 4
)

var cssURLPattern = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// Ensure WebFullPage implements capture.Provider at compile time.
var _ capture.Provider = (*WebFullPage)(nil)

// WebFullPage captures a self-contained HTML snapshot: relative URLs are
// rewritten to absolute, external stylesheets and images are inlined, and
// capture metadata is injected into the document head.
type WebFullPage struct {
	fetcher capture.Fetcher
}

// NewWebFullPage creates a new WebFullPage provider.
func NewWebFullPage(fetcher capture.Fetcher) *WebFullPage {
	return &WebFullPage{fetcher: fetcher}
}

func (p *WebFullPage) ID() string { return "web_full_page" }

func (p *WebFullPage) DisplayName() string { return "Web Full Page Snapshot" }

func (p *WebFullPage) Supports(input *capture.CaptureInput) bool {
	return input.Kind == capture.KindURL
}

func (p *WebFullPage) Capture(ctx context.Context, input *capture.CaptureInput, config *capture.CaptureConfig) (*capture.CaptureItem, error) {
	if !p.Supports(input) {
		return nil, capture.Errorf(capture.EINVALID, "web_full_page does not support input kind %q", input.Kind)
	}

	timeout := config.Timeout(webFullPageTimeout)
	resp, err := fetchPage(ctx, p.fetcher, &capture.FetchRequest{
		URL:     input.URL,
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	doc, err := gq.NewDocumentFromReader(strings.NewReader(string(resp.Body)))
	if err != nil {
		return nil, capture.Errorf(capture.EINVALID, "failed to parse HTML from %s: %v", input.URL, err)
	}

	opts := config.Options(p.ID())
	inlineStyles := optBool(opts, "inlineStyles", true)
	inlineImages := optBool(opts, "inlineImages", true)

	p.resolveRelativeURLs(doc, input.URL)
	if inlineStyles {
		p.inlineStylesheets(ctx, doc, input.URL, timeout)
	}
	if inlineImages {
		p.inlineImages(ctx, doc, input.URL, timeout)
	}
	p.injectCaptureMeta(doc, input.URL)

	finalHTML, err := doc.Html()
	if err != nil {
		return nil, capture.Errorf(capture.EINTERNAL, "serializing snapshot of %s: %v", input.URL, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "Untitled"
	}

	meta := newMetadata(p.ID())
	meta.SourceURL = input.URL
	meta.Title = title
	meta.MIMEType = "text/html"
	meta.Extra = map[string]any{
		"sizeBytes": len(finalHTML),
	}

	return &capture.CaptureItem{
		Content:        finalHTML,
		SourceMetadata: meta,
		RawData:        clampRaw(resp.Body, config),
	}, nil
}

// resolveRelativeURLs rewrites every src, href, and action attribute to an
// absolute URL against the page URL. Unresolvable values are kept as-is.
func (p *WebFullPage) resolveRelativeURLs(doc *gq.Document, pageURL string) {
	for _, attr := range []string{"src", "href", "action"} {
		doc.Find("[" + attr + "]").Each(func(_ int, s *gq.Selection) {
			val, _ := s.Attr(attr)
			if val == "" || strings.HasPrefix(val, "data:") {
				return
			}
			if resolved := goquery.ResolveURL(pageURL, val); resolved != "" {
				s.SetAttr(attr, resolved)
			}
		})
	}
}

// inlineStylesheets replaces each external stylesheet link with an embedded
// style block. The original link is kept when the sheet cannot be fetched.
func (p *WebFullPage) inlineStylesheets(ctx context.Context, doc *gq.Document, pageURL string, timeout time.Duration) {
	doc.Find(`link[rel="stylesheet"]`).Each(func(_ int, s *gq.Selection) {
		href, _ := s.Attr("href")
		if href == "" {
			return
		}
		cssURL := goquery.ResolveURL(pageURL, href)
		if cssURL == "" {
			return
		}
		resp, err := p.fetcher.Fetch(ctx, &capture.FetchRequest{URL: cssURL, Timeout: timeout})
		if err != nil || !resp.OK() {
			return
		}
		css := rewriteCSSURLs(string(resp.Body), cssURL)
		s.ReplaceWithHtml(fmt.Sprintf("<style data-source=%q>\n%s\n</style>", cssURL, css))
	})
}

// rewriteCSSURLs resolves url(...) references inside a stylesheet against
// the sheet's own URL so they stay valid after inlining.
func rewriteCSSURLs(css, sheetURL string) string {
	return cssURLPattern.ReplaceAllStringFunc(css, func(match string) string {
		ref := cssURLPattern.FindStringSubmatch(match)[1]
		if strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
			return match
		}
		resolved := goquery.ResolveURL(sheetURL, ref)
		if resolved == "" {
			return match
		}
		return fmt.Sprintf("url(%q)", resolved)
	})
}

// inlineImages converts image sources to base64 data URIs. Fetches run
// under a bounded group; the original URL is kept on any per-image failure.
func (p *WebFullPage) inlineImages(ctx context.Context, doc *gq.Document, pageURL string, timeout time.Duration) {
	type target struct {
		sel *gq.Selection
		url string
	}

	var targets []target
	doc.Find("img[src]").Each(func(_ int, s *gq.Selection) {
		src, _ := s.Attr("src")
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		imgURL := goquery.ResolveURL(pageURL, src)
		if imgURL == "" {
			return
		}
		targets = append(targets, target{sel: s, url: imgURL})
	})

	dataURIs := make([]string, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(inlineFetchParallelism)
	for i, t := range targets {
		g.Go(func() error {
			resp, err := p.fetcher.Fetch(gctx, &capture.FetchRequest{URL: t.url, Timeout: timeout})
			if err != nil || !resp.OK() {
				return nil
			}
			mimeType := resp.HeaderValue("Content-Type")
			if mimeType == "" {
				mimeType = http.DetectContentType(resp.Body)
			}
			dataURIs[i] = "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(resp.Body)
			return nil
		})
	}
	_ = g.Wait()

	// Attribute mutation happens after the group so DOM access stays
	// single-goroutine.
	for i, t := range targets {
		if dataURIs[i] != "" {
			t.sel.SetAttr("src", dataURIs[i])
		}
	}
}

// injectCaptureMeta prepends capture timestamp and source URL meta tags to
// the document head.
func (p *WebFullPage) injectCaptureMeta(doc *gq.Document, pageURL string) {
	tags := fmt.Sprintf(
		`<meta name="capture:captured-at" content="%s"/><meta name="capture:source-url" content="%s"/>`,
		time.Now().UTC().Format(time.RFC3339), html.EscapeString(pageURL),
	)
	head := doc.Find("head").First()
	if head.Length() > 0 {
		head.PrependHtml(tags)
		return
	}
	doc.Find("html").First().PrependHtml("<head>" + tags + "</head>")
}
