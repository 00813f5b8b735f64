package provider_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/clefhq/capture"
	"github.com/clefhq/capture/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailForward_Capture(t *testing.T) {
	t.Parallel()

	t.Run("plain text message", func(t *testing.T) {
		t.Parallel()

		raw := strings.Join([]string{
			"From: alice@example.com",
			"To: bob@example.com",
			"Subject: Meeting notes",
			"Date: Mon, 06 Jan 2025 10:00:00 +0000",
			"Message-ID: <abc@example.com>",
			"",
			"Here are the notes.",
		}, "\r\n")

		p := provider.NewEmailForward()
		item, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindEmail,
			Raw:  raw,
		}, nil)
		require.NoError(t, err)

		assert.Contains(t, item.Content, "From: alice@example.com")
		assert.Contains(t, item.Content, "To: bob@example.com")
		assert.Contains(t, item.Content, "Subject: Meeting notes")
		assert.Contains(t, item.Content, "Date: Mon, 06 Jan 2025 10:00:00 +0000")
		assert.Contains(t, item.Content, "Message-ID: <abc@example.com>")
		assert.Contains(t, item.Content, "Here are the notes.")

		assert.Equal(t, "email_forward", item.SourceMetadata.ProviderID)
		assert.Equal(t, "Meeting notes", item.SourceMetadata.Title)
		assert.Equal(t, "alice@example.com", item.SourceMetadata.Author)
		assert.Equal(t, 0, item.SourceMetadata.Extra["attachmentCount"])
		assert.Equal(t, false, item.SourceMetadata.Extra["hasHtmlBody"])
	})

	t.Run("multipart with base64 attachment", func(t *testing.T) {
		t.Parallel()

		payload := []byte("attached file contents")
		raw := strings.Join([]string{
			"From: alice@example.com",
			"To: bob@example.com",
			"Subject: With attachment",
			`Content-Type: multipart/mixed; boundary="XYZ"`,
			"",
			"--XYZ",
			"Content-Type: text/plain",
			"",
			"See attached.",
			"--XYZ",
			"Content-Type: application/pdf",
			`Content-Disposition: attachment; filename="report.pdf"`,
			"Content-Transfer-Encoding: base64",
			"",
			base64.StdEncoding.EncodeToString(payload),
			"--XYZ--",
		}, "\r\n")

		p := provider.NewEmailForward()
		item, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindEmail,
			Raw:  raw,
		}, nil)
		require.NoError(t, err)

		assert.Contains(t, item.Content, "See attached.")
		assert.Contains(t, item.Content, "Attachments (1):")
		assert.Contains(t, item.Content, "- report.pdf (application/pdf, 22 B)")
		assert.Equal(t, 1, item.SourceMetadata.Extra["attachmentCount"])
	})

	t.Run("html body wins and flattens to text", func(t *testing.T) {
		t.Parallel()

		raw := strings.Join([]string{
			"From: alice@example.com",
			"Subject: HTML mail",
			`Content-Type: multipart/alternative; boundary="ALT"`,
			"",
			"--ALT",
			"Content-Type: text/plain",
			"",
			"plain fallback",
			"--ALT",
			"Content-Type: text/html",
			"",
			"<html><body><p>First line</p><p>Second <b>bold</b> line</p></body></html>",
			"--ALT--",
		}, "\r\n")

		p := provider.NewEmailForward()
		item, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindEmail,
			Raw:  raw,
		}, nil)
		require.NoError(t, err)

		assert.Contains(t, item.Content, "First line")
		assert.Contains(t, item.Content, "Second bold line")
		assert.NotContains(t, item.Content, "<p>")
		assert.NotContains(t, item.Content, "plain fallback")
		assert.Equal(t, true, item.SourceMetadata.Extra["hasHtmlBody"])
	})

	t.Run("quoted-printable body decodes", func(t *testing.T) {
		t.Parallel()

		raw := strings.Join([]string{
			"From: alice@example.com",
			"Subject: QP",
			"Content-Transfer-Encoding: quoted-printable",
			"",
			"caf=C3=A9 on a long line that is soft-=",
			"wrapped",
		}, "\r\n")

		p := provider.NewEmailForward()
		item, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindEmail,
			Raw:  raw,
		}, nil)
		require.NoError(t, err)
		assert.Contains(t, item.Content, "café on a long line that is soft-wrapped")
	})

	t.Run("encoded-word subject decodes", func(t *testing.T) {
		t.Parallel()

		raw := strings.Join([]string{
			"From: alice@example.com",
			"Subject: =?UTF-8?Q?Caf=C3=A9_plans?=",
			"",
			"body",
		}, "\r\n")

		p := provider.NewEmailForward()
		item, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindEmail,
			Raw:  raw,
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Café plans", item.SourceMetadata.Title)
		assert.Contains(t, item.Content, "Subject: Café plans")
	})

	t.Run("folded headers unfold", func(t *testing.T) {
		t.Parallel()

		raw := strings.Join([]string{
			"From: alice@example.com",
			"Subject: A subject that",
			"\tcontinues on the next line",
			"",
			"body",
		}, "\r\n")

		p := provider.NewEmailForward()
		item, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindEmail,
			Raw:  raw,
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "A subject that continues on the next line", item.SourceMetadata.Title)
	})

	t.Run("missing subject falls back", func(t *testing.T) {
		t.Parallel()

		p := provider.NewEmailForward()
		item, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindEmail,
			Raw:  "From: alice@example.com\r\n\r\nhello",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "(no subject)", item.SourceMetadata.Title)
	})

	t.Run("malformed input never fails", func(t *testing.T) {
		t.Parallel()

		p := provider.NewEmailForward()
		for _, raw := range []string{
			"",
			"no headers at all, just text",
			"Content-Type: multipart/mixed; boundary=broken\r\n\r\n--other\r\ngarbage",
		} {
			item, err := p.Capture(context.Background(), &capture.CaptureInput{
				Kind: capture.KindEmail,
				Raw:  raw,
			}, nil)
			require.NoError(t, err)
			require.NotNil(t, item)
		}
	})

	t.Run("raw data echoes the message when requested", func(t *testing.T) {
		t.Parallel()

		raw := "From: a@b.c\r\n\r\nbody"
		p := provider.NewEmailForward()
		item, err := p.Capture(context.Background(), &capture.CaptureInput{
			Kind: capture.KindEmail,
			Raw:  raw,
		}, &capture.CaptureConfig{IncludeRawData: true})
		require.NoError(t, err)
		assert.Equal(t, []byte(raw), item.RawData)
	})

	t.Run("non-email input is invalid", func(t *testing.T) {
		t.Parallel()

		p := provider.NewEmailForward()
		_, err := p.Capture(context.Background(), &capture.CaptureInput{Kind: capture.KindURL}, nil)
		require.Error(t, err)
		assert.Equal(t, capture.EINVALID, capture.ErrorCode(err))
	})
}
