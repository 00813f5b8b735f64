package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	gq "github.com/PuerkitoBio/goquery"
	"github.com/clefhq/capture"
)

const (
	shareIntentTitleTimeout = 10 * time.Second

	// titleLimit caps derived titles at 80 characters.
	titleLimit = 80
)

// Ensure ShareIntent implements capture.Provider at compile time.
var _ capture.Provider = (*ShareIntent)(nil)

// ShareIntent handles OS share-sheet payloads. The intent is classified by
// which of text, URL, and files are present; URL intents fetch only the
// page title (best effort), and file intents delegate each embedded file to
// the file-upload provider.
type ShareIntent struct {
	fetcher capture.Fetcher
	files   capture.Provider
}

// NewShareIntent creates a new ShareIntent provider. files receives the
// delegated per-file captures and is normally the file-upload provider.
func NewShareIntent(fetcher capture.Fetcher, files capture.Provider) *ShareIntent {
	return &ShareIntent{fetcher: fetcher, files: files}
}

func (p *ShareIntent) ID() string { return "share_intent" }

func (p *ShareIntent) DisplayName() string { return "Share Intent (OS Share Sheet)" }

func (p *ShareIntent) Supports(input *capture.CaptureInput) bool {
	return input.Kind == capture.KindShareIntent
}

func (p *ShareIntent) Capture(ctx context.Context, input *capture.CaptureInput, config *capture.CaptureConfig) (*capture.CaptureItem, error) {
	if !p.Supports(input) {
		return nil, capture.Errorf(capture.EINVALID, "share_intent does not support input kind %q", input.Kind)
	}

	hasURL := input.URL != ""
	hasText := input.Text != ""
	hasFiles := len(input.Files) > 0

	intentType := classifyIntent(hasURL, hasText, hasFiles)

	var content, title string
	switch intentType {
	case "url_only":
		pageTitle := p.fetchPageTitle(ctx, input.URL, config)
		if pageTitle != "" {
			title = pageTitle
			content = fmt.Sprintf("# %s\nURL: %s", pageTitle, input.URL)
		} else {
			title = input.URL
			content = fmt.Sprintf("URL: %s", input.URL)
		}

	case "url_with_text":
		pageTitle := p.fetchPageTitle(ctx, input.URL, config)
		if pageTitle != "" {
			title = pageTitle
			content = fmt.Sprintf("# %s\nURL: %s\n\n%s", pageTitle, input.URL, input.Text)
		} else {
			title = truncateTitle(input.Text)
			content = fmt.Sprintf("URL: %s\n\n%s", input.URL, input.Text)
		}

	case "text_only":
		title = truncateTitle(input.Text)
		content = input.Text

	case "files_only", "files_with_text":
		content = p.captureFiles(ctx, input, config, hasText)
		if len(input.Files) == 1 {
			title = input.Files[0].Name
		} else {
			title = fmt.Sprintf("%d shared files", len(input.Files))
		}

	default:
		title = "Empty share"
	}

	fileNames := make([]string, len(input.Files))
	for i, f := range input.Files {
		fileNames[i] = f.Name
	}

	meta := newMetadata(p.ID())
	meta.SourceURL = input.URL
	meta.Title = title
	meta.Extra = map[string]any{
		"intentType": intentType,
		"hasText":    hasText,
		"hasUrl":     hasURL,
		"fileCount":  len(input.Files),
		"fileNames":  fileNames,
	}

	return &capture.CaptureItem{
		Content:        content,
		SourceMetadata: meta,
	}, nil
}

func classifyIntent(hasURL, hasText, hasFiles bool) string {
	switch {
	case hasFiles && hasText:
		return "files_with_text"
	case hasFiles:
		return "files_only"
	case hasURL && hasText:
		return "url_with_text"
	case hasURL:
		return "url_only"
	case hasText:
		return "text_only"
	default:
		return "empty"
	}
}

// captureFiles delegates each shared file to the file-upload provider and
// joins the per-file sections. A failed file renders an error line under
// its heading instead of failing the capture.
func (p *ShareIntent) captureFiles(ctx context.Context, input *capture.CaptureInput, config *capture.CaptureConfig, hasText bool) string {
	sections := make([]string, 0, len(input.Files))
	for _, f := range input.Files {
		fileInput := &capture.CaptureInput{
			Kind:     capture.KindFile,
			Path:     f.Name,
			Data:     f.Data,
			MIMEHint: f.MIMEType,
		}
		if p.files == nil || !p.files.Supports(fileInput) {
			continue
		}
		item, err := p.files.Capture(ctx, fileInput, config)
		if err != nil {
			sections = append(sections, fmt.Sprintf("## %s\n[Error processing file]", f.Name))
			continue
		}
		sections = append(sections, fmt.Sprintf("## %s\n%s", f.Name, item.Content))
	}

	joined := strings.Join(sections, "\n\n")
	if hasText {
		return input.Text + "\n\n" + joined
	}
	return joined
}

// fetchPageTitle fetches the shared URL and extracts its title tag. Any
// failure yields an empty title; the share still succeeds.
func (p *ShareIntent) fetchPageTitle(ctx context.Context, pageURL string, config *capture.CaptureConfig) string {
	resp, err := p.fetcher.Fetch(ctx, &capture.FetchRequest{
		URL:       pageURL,
		Timeout:   config.Timeout(shareIntentTitleTimeout),
		MaxBytes:  headReadCap,
		StopAfter: "</title>",
	})
	if err != nil || !resp.OK() {
		return ""
	}
	doc, err := gq.NewDocumentFromReader(strings.NewReader(string(resp.Body)))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// truncateTitle derives a one-line title from free text: newlines collapse
// to spaces and the result is capped at titleLimit characters.
func truncateTitle(text string) string {
	title := strings.ReplaceAll(text, "\n", " ")
	runes := []rune(title)
	if len(runes) > titleLimit {
		return string(runes[:titleLimit])
	}
	return title
}
