// Package goquery extracts page metadata from HTML documents. Open Graph
// fields are parsed with go-opengraph; everything else (standard meta
// tags, Twitter Cards, favicons, canonical links) is read off a goquery
// document. Works on partial documents such as head-only reads.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
)

// PageMetadata holds everything the web providers extract from a page's
// head. All fields are optional except as filled by defaults.
type PageMetadata struct {
	Title       string
	Author      string
	PublishedAt string
	SiteName    string
	Description string
	Favicon     string
	Canonical   string
	Image       string
	ThemeColor  string
	Keywords    []string
	Language    string
	OGType      string
}

// ExtractPageMetadata reads metadata from html, preferring Open Graph
// tags, then Twitter Card tags, then standard meta/title/link tags.
// The favicon defaults to /favicon.ico on the page URL's origin. Missing
// fields are left empty; extraction itself never fails.
func ExtractPageMetadata(html string, pageURL string) *PageMetadata {
	meta := &PageMetadata{}

	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(strings.NewReader(html)); err == nil {
		meta.Title = og.Title
		meta.Description = og.Description
		meta.SiteName = og.SiteName
		meta.Canonical = og.URL
		meta.OGType = og.Type
		if len(og.Images) > 0 {
			meta.Image = og.Images[0].URL
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Unparsable input still yields whatever Open Graph found plus
		// the default favicon.
		meta.Favicon = defaultFavicon(pageURL)
		return meta
	}

	fallback(&meta.Title, metaContent(doc, "twitter:title"))
	fallback(&meta.Title, strings.TrimSpace(doc.Find("title").First().Text()))

	fallback(&meta.Description, metaContent(doc, "twitter:description"))
	fallback(&meta.Description, metaContent(doc, "description"))

	fallback(&meta.Image, metaContent(doc, "twitter:image"))

	meta.Author = metaContent(doc, "author")
	fallback(&meta.Author, metaContent(doc, "article:author"))

	meta.PublishedAt = metaContent(doc, "article:published_time")
	if meta.PublishedAt == "" {
		meta.PublishedAt, _ = doc.Find("time[datetime]").First().Attr("datetime")
	}

	fallback(&meta.Canonical, doc.Find(`link[rel="canonical"]`).First().AttrOr("href", ""))

	meta.ThemeColor = metaContent(doc, "theme-color")

	if kw := metaContent(doc, "keywords"); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				meta.Keywords = append(meta.Keywords, k)
			}
		}
	}

	meta.Language, _ = doc.Find("html").First().Attr("lang")

	meta.Favicon = faviconURL(doc, pageURL)

	return meta
}

// metaContent returns the content attribute of the first meta tag whose
// name or property attribute equals key.
func metaContent(doc *goquery.Document, key string) string {
	sel := `meta[name="` + key + `"], meta[property="` + key + `"]`
	val, _ := doc.Find(sel).First().Attr("content")
	return strings.TrimSpace(val)
}

// faviconURL returns the page's declared icon resolved against pageURL,
// or {origin}/favicon.ico when none is declared.
func faviconURL(doc *goquery.Document, pageURL string) string {
	href := ""
	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		switch strings.ToLower(strings.TrimSpace(rel)) {
		case "icon", "shortcut icon", "apple-touch-icon":
			href, _ = s.Attr("href")
			return href == ""
		}
		return true
	})
	if href == "" {
		return defaultFavicon(pageURL)
	}
	if resolved := ResolveURL(pageURL, href); resolved != "" {
		return resolved
	}
	return href
}

func defaultFavicon(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/favicon.ico"
}

// ResolveURL resolves a possibly-relative reference against base.
// Returns "" when either URL cannot be parsed.
func ResolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}

// fallback assigns v to dst only when dst is still empty.
func fallback(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
