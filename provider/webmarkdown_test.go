package provider_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/clefhq/capture"
	"github.com/clefhq/capture/mock"
	"github.com/clefhq/capture/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const markdownPage = `<html><head>
	<title>Notes on Go</title>
	<meta name="author" content="Jordan Doe"/>
	<meta name="article:published_time" content="2024-05-01T00:00:00Z"/>
	<meta property="og:site_name" content="Example Blog"/>
	<meta name="description" content="Assorted notes."/>
	<meta name="keywords" content="go, notes"/>
</head><body>
	<nav>skip me</nav>
	<article><h1>Notes</h1><p>Hello.</p></article>
</body></html>`

// parseFrontmatter splits the content into its YAML block and body.
func parseFrontmatter(t *testing.T, content string) (map[string]any, string) {
	t.Helper()
	require.True(t, strings.HasPrefix(content, "---\n"))
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	require.GreaterOrEqual(t, end, 0)

	var fm map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(rest[:end]), &fm))
	return fm, strings.TrimPrefix(rest[end+len("\n---"):], "\n")
}

func TestWebMarkdown_Capture(t *testing.T) {
	t.Parallel()

	t.Run("frontmatter carries page metadata", func(t *testing.T) {
		t.Parallel()

		conv := &mock.Converter{
			ConvertFn: func(_ string) (string, error) { return "# Notes\n\nHello.", nil },
		}
		p := provider.NewWebMarkdown(fixedFetcher(markdownPage, 200), conv)
		item, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindURL,
			URL:  "https://example.com/notes",
		}, nil)
		require.NoError(t, err)

		fm, body := parseFrontmatter(t, item.Content)
		assert.Equal(t, "Notes on Go", fm["title"])
		assert.Equal(t, "Jordan Doe", fm["author"])
		assert.Equal(t, "Example Blog", fm["source"])
		assert.Equal(t, "Assorted notes.", fm["description"])
		assert.Equal(t, []any{"go", "notes"}, fm["tags"])

		capturedAt, ok := fm["captured_at"].(string)
		if !ok {
			ts, isTime := fm["captured_at"].(time.Time)
			require.True(t, isTime)
			capturedAt = ts.Format(time.RFC3339)
		}
		_, err = time.Parse(time.RFC3339, capturedAt)
		require.NoError(t, err)

		assert.Contains(t, body, "# Notes")
		assert.Contains(t, body, "Hello.")
	})

	t.Run("converter receives the article region only", func(t *testing.T) {
		t.Parallel()

		var gotHTML string
		conv := &mock.Converter{
			ConvertFn: func(html string) (string, error) {
				gotHTML = html
				return "converted", nil
			},
		}
		p := provider.NewWebMarkdown(fixedFetcher(markdownPage, 200), conv)
		_, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindURL,
			URL:  "https://example.com/notes",
		}, nil)
		require.NoError(t, err)
		assert.Contains(t, gotHTML, "<h1>Notes</h1>")
		assert.NotContains(t, gotHTML, "skip me")
	})

	t.Run("metadata mirrors the frontmatter", func(t *testing.T) {
		t.Parallel()

		conv := &mock.Converter{ConvertFn: func(_ string) (string, error) { return "x", nil }}
		p := provider.NewWebMarkdown(fixedFetcher(markdownPage, 200), conv)
		item, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindURL,
			URL:  "https://example.com/notes",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "web_markdown", item.SourceMetadata.ProviderID)
		assert.Equal(t, "Notes on Go", item.SourceMetadata.Title)
		assert.Equal(t, "Jordan Doe", item.SourceMetadata.Author)
		assert.Equal(t, "Example Blog", item.SourceMetadata.SiteName)
	})

	t.Run("untitled page still renders frontmatter", func(t *testing.T) {
		t.Parallel()

		conv := &mock.Converter{ConvertFn: func(_ string) (string, error) { return "x", nil }}
		p := provider.NewWebMarkdown(fixedFetcher("<html><body><p>x</p></body></html>", 200), conv)
		item, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindURL,
			URL:  "https://example.com/",
		}, nil)
		require.NoError(t, err)

		fm, _ := parseFrontmatter(t, item.Content)
		assert.Equal(t, "Untitled", fm["title"])
		assert.Equal(t, "Untitled", item.SourceMetadata.Title)
	})

	t.Run("multi-line meta values stay on one frontmatter line", func(t *testing.T) {
		t.Parallel()

		page := `<html><head>
			<title>Wrapped</title>
			<meta name="description" content="first line
second line"/>
		</head><body><p>x</p></body></html>`

		conv := &mock.Converter{ConvertFn: func(_ string) (string, error) { return "x", nil }}
		p := provider.NewWebMarkdown(fixedFetcher(page, 200), conv)
		item, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindURL,
			URL:  "https://example.com/",
		}, nil)
		require.NoError(t, err)

		fm, _ := parseFrontmatter(t, item.Content)
		assert.Equal(t, "first line second line", fm["description"])
	})

	t.Run("converter errors pass through", func(t *testing.T) {
		t.Parallel()

		conv := &mock.Converter{
			ConvertFn: func(_ string) (string, error) {
				return "", capture.Errorf(capture.EINVALID, "empty HTML input")
			},
		}
		p := provider.NewWebMarkdown(fixedFetcher(markdownPage, 200), conv)
		_, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindURL,
			URL:  "https://example.com/notes",
		}, nil)
		require.Error(t, err)
		assert.Equal(t, capture.EINVALID, capture.ErrorCode(err))
	})
}
