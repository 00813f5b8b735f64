package goquery_test

import (
	"testing"

	"github.com/clefhq/capture/goquery"
	"github.com/stretchr/testify/assert"
)

func TestExtractPageMetadata(t *testing.T) {
	t.Parallel()

	t.Run("prefers open graph fields", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<title>Plain Title</title>
			<meta property="og:title" content="OG Title"/>
			<meta property="og:description" content="OG description"/>
			<meta property="og:site_name" content="Example Site"/>
			<meta property="og:image" content="https://example.com/og.png"/>
			<meta name="description" content="Plain description"/>
		</head></html>`

		meta := goquery.ExtractPageMetadata(html, "https://example.com/post")
		assert.Equal(t, "OG Title", meta.Title)
		assert.Equal(t, "OG description", meta.Description)
		assert.Equal(t, "Example Site", meta.SiteName)
		assert.Equal(t, "https://example.com/og.png", meta.Image)
	})

	t.Run("falls back to twitter card then standard tags", func(t *testing.T) {
		t.Parallel()

		html := `<html lang="en"><head>
			<title>Tag Title</title>
			<meta name="twitter:description" content="Card description"/>
			<meta name="author" content="Jordan Doe"/>
			<meta name="article:published_time" content="2024-05-01T00:00:00Z"/>
			<meta name="keywords" content="go, capture , web"/>
		</head></html>`

		meta := goquery.ExtractPageMetadata(html, "https://example.com/post")
		assert.Equal(t, "Tag Title", meta.Title)
		assert.Equal(t, "Card description", meta.Description)
		assert.Equal(t, "Jordan Doe", meta.Author)
		assert.Equal(t, "2024-05-01T00:00:00Z", meta.PublishedAt)
		assert.Equal(t, []string{"go", "capture", "web"}, meta.Keywords)
		assert.Equal(t, "en", meta.Language)
	})

	t.Run("favicon defaults to origin favicon.ico", func(t *testing.T) {
		t.Parallel()

		meta := goquery.ExtractPageMetadata("<html><head></head></html>", "https://example.com/deep/page")
		assert.Equal(t, "https://example.com/favicon.ico", meta.Favicon)
	})

	t.Run("declared favicon is resolved against page url", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><link rel="icon" href="/static/icon.png"/></head></html>`
		meta := goquery.ExtractPageMetadata(html, "https://example.com/deep/page")
		assert.Equal(t, "https://example.com/static/icon.png", meta.Favicon)
	})

	t.Run("canonical link is read when og:url is absent", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><link rel="canonical" href="https://example.com/canonical"/></head></html>`
		meta := goquery.ExtractPageMetadata(html, "https://example.com/post?utm=1")
		assert.Equal(t, "https://example.com/canonical", meta.Canonical)
	})

	t.Run("works on a head-only partial document", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><meta property="og:title" content="Partial"/></head>`
		meta := goquery.ExtractPageMetadata(html, "https://example.com/")
		assert.Equal(t, "Partial", meta.Title)
	})
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/a/c", goquery.ResolveURL("https://example.com/a/b", "c"))
	assert.Equal(t, "https://example.com/c", goquery.ResolveURL("https://example.com/a/b", "/c"))
	assert.Equal(t, "https://other.com/x", goquery.ResolveURL("https://example.com/", "https://other.com/x"))
}
