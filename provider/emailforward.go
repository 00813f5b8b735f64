package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/quotedprintable"
	"regexp"
	"strings"

	"github.com/clefhq/capture"
	"golang.org/x/net/html"
)

// maxMultipartDepth bounds recursion into nested multipart parts.
const maxMultipartDepth = 5

var (
	headerFoldPattern = regexp.MustCompile(`\r?\n[ \t]+`)
	boundaryPattern   = regexp.MustCompile(`boundary=["']?([^"';\s]+)["']?`)
	filenamePattern   = regexp.MustCompile(`(?:filename|name)=["']?([^"';\s]+)["']?`)
	encodedWord       = regexp.MustCompile(`=\?([^?]+)\?([QqBb])\?([^?]*)\?=`)
	qpEscape          = regexp.MustCompile(`=([0-9A-Fa-f]{2})`)
	multiBlankLines   = regexp.MustCompile(`\n{3,}`)
)

// emailBlockTags start a new line when HTML email bodies are flattened to
// text.
var emailBlockTags = map[string]bool{
	"p": true, "div": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "blockquote": true,
	"li": true, "tr": true,
}

// Ensure EmailForward implements capture.Provider at compile time.
var _ capture.Provider = (*EmailForward)(nil)

// EmailForward parses a forwarded RFC 2822 message: headers are unfolded
// and decoded, MIME multipart bodies are split and classified into text,
// HTML, and attachments, and the result is a header summary, the preferred
// body, and an attachment manifest. Malformed parts never fail the capture;
// anything unclassifiable becomes an attachment-like blob.
type EmailForward struct{}

// NewEmailForward creates a new EmailForward provider.
func NewEmailForward() *EmailForward {
	return &EmailForward{}
}

func (p *EmailForward) ID() string { return "email_forward" }

func (p *EmailForward) DisplayName() string { return "Email Forward (RFC 2822)" }

func (p *EmailForward) Supports(input *capture.CaptureInput) bool {
	return input.Kind == capture.KindEmail
}

type emailAttachment struct {
	name string
	mime string
	size int
}

// emailBody accumulates classified part content during the multipart walk.
type emailBody struct {
	text        strings.Builder
	html        strings.Builder
	attachments []emailAttachment
}

func (p *EmailForward) Capture(ctx context.Context, input *capture.CaptureInput, config *capture.CaptureConfig) (*capture.CaptureItem, error) {
	if !p.Supports(input) {
		return nil, capture.Errorf(capture.EINVALID, "email_forward does not support input kind %q", input.Kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	headerSection, bodySection := splitHeadersBody(input.Raw)
	headers := parseHeaders(headerSection)

	contentType := headers["content-type"]
	if contentType == "" {
		contentType = "text/plain"
	}

	var body emailBody
	if boundary := extractBoundary(contentType); boundary != "" {
		collectParts(&body, bodySection, boundary, 0)
	} else {
		decoded := decodeTransferEncoding(bodySection, headers["content-transfer-encoding"])
		if strings.HasPrefix(strings.ToLower(contentType), "text/html") {
			body.html.WriteString(decoded)
		} else {
			body.text.WriteString(decoded)
		}
	}

	// HTML converted to text wins over the plain-text body.
	mainContent := body.text.String()
	hasHTMLBody := body.html.Len() > 0
	if hasHTMLBody {
		mainContent = htmlToText(body.html.String())
	}

	subject := decodeEncodedWords(headerOr(headers, "subject", "(no subject)"))
	from := decodeEncodedWords(headers["from"])
	to := decodeEncodedWords(headers["to"])
	date := headers["date"]
	messageID := headers["message-id"]

	lines := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
	}
	if date != "" {
		lines = append(lines, fmt.Sprintf("Date: %s", date))
	}
	if messageID != "" {
		lines = append(lines, fmt.Sprintf("Message-ID: %s", messageID))
	}
	lines = append(lines, "", mainContent)

	if len(body.attachments) > 0 {
		lines = append(lines, "", fmt.Sprintf("Attachments (%d):", len(body.attachments)))
		for _, a := range body.attachments {
			lines = append(lines, fmt.Sprintf("  - %s (%s, %s)", a.name, a.mime, formatBytes(a.size)))
		}
	}

	meta := newMetadata(p.ID())
	meta.Title = subject
	meta.Author = from
	meta.Extra = map[string]any{
		"to":              to,
		"date":            date,
		"messageId":       messageID,
		"attachmentCount": len(body.attachments),
		"hasHtmlBody":     hasHTMLBody,
	}

	return &capture.CaptureItem{
		Content:        strings.Join(lines, "\n"),
		SourceMetadata: meta,
		RawData:        clampRaw([]byte(input.Raw), config),
	}, nil
}

// splitHeadersBody splits a message at the first blank line. A message with
// no blank line is all headers.
func splitHeadersBody(raw string) (string, string) {
	if idx := strings.Index(raw, "\r\n\r\n"); idx >= 0 {
		return raw[:idx], raw[idx+4:]
	}
	if idx := strings.Index(raw, "\n\n"); idx >= 0 {
		return raw[:idx], raw[idx+2:]
	}
	return raw, ""
}

// parseHeaders unfolds continuation lines and lower-cases header names.
func parseHeaders(section string) map[string]string {
	unfolded := headerFoldPattern.ReplaceAllString(section, " ")

	headers := make(map[string]string)
	for _, line := range strings.Split(unfolded, "\n") {
		line = strings.TrimRight(line, "\r")
		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(line[:colon]))
		headers[name] = strings.TrimSpace(line[colon+1:])
	}
	return headers
}

func headerOr(headers map[string]string, name, def string) string {
	if v, ok := headers[name]; ok && v != "" {
		return v
	}
	return def
}

// extractBoundary pulls the multipart boundary out of a Content-Type value,
// trying the proper parser first and a forgiving pattern second.
func extractBoundary(contentType string) string {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if b := params["boundary"]; b != "" {
			return b
		}
	}
	if m := boundaryPattern.FindStringSubmatch(contentType); m != nil {
		return m[1]
	}
	return ""
}

// collectParts splits a multipart body on its boundary and classifies each
// part, recursing into nested multiparts up to maxMultipartDepth.
func collectParts(body *emailBody, section, boundary string, depth int) {
	if depth >= maxMultipartDepth {
		return
	}

	pieces := strings.Split(section, "--"+boundary)
	if len(pieces) < 2 {
		return
	}
	for _, piece := range pieces[1:] { // pieces[0] is the preamble
		if strings.HasPrefix(piece, "--") || strings.TrimSpace(piece) == "" {
			continue
		}
		classifyPart(body, strings.TrimSpace(piece), depth)
	}
}

func classifyPart(body *emailBody, part string, depth int) {
	headerSection, partBody := splitHeadersBody(part)
	headers := parseHeaders(headerSection)

	contentType := headerOr(headers, "content-type", "text/plain")
	encoding := headers["content-transfer-encoding"]
	disposition := headers["content-disposition"]
	filename := partFilename(disposition, contentType)
	isAttachment := strings.Contains(strings.ToLower(disposition), "attachment") || filename != ""

	lower := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(lower, "text/plain") && !isAttachment:
		body.text.WriteString(decodeTransferEncoding(partBody, encoding))
	case strings.HasPrefix(lower, "text/html") && !isAttachment:
		body.html.WriteString(decodeTransferEncoding(partBody, encoding))
	case strings.HasPrefix(lower, "multipart/"):
		if nested := extractBoundary(contentType); nested != "" {
			collectParts(body, partBody, nested, depth+1)
		}
	default:
		name := filename
		if name == "" {
			name = "untitled"
		}
		mimeType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
		data := decodeAttachment(partBody, encoding)
		body.attachments = append(body.attachments, emailAttachment{
			name: name,
			mime: mimeType,
			size: len(data),
		})
	}
}

// partFilename extracts the attachment filename from Content-Disposition or
// a Content-Type name parameter.
func partFilename(disposition, contentType string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if f := params["filename"]; f != "" {
			return decodeEncodedWords(f)
		}
	}
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if f := params["name"]; f != "" {
			return decodeEncodedWords(f)
		}
	}
	for _, v := range []string{disposition, contentType} {
		if m := filenamePattern.FindStringSubmatch(v); m != nil {
			return decodeEncodedWords(m[1])
		}
	}
	return ""
}

// decodeTransferEncoding decodes a text body per its
// Content-Transfer-Encoding. Undecodable content is returned as-is.
func decodeTransferEncoding(body, encoding string) string {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		cleaned := strings.Map(dropSpace, body)
		if decoded, err := base64.StdEncoding.DecodeString(cleaned); err == nil {
			return string(decoded)
		}
		return body
	case "quoted-printable":
		return decodeQuotedPrintable(body)
	default:
		return body
	}
}

// decodeAttachment decodes an attachment body into bytes.
func decodeAttachment(body, encoding string) []byte {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		cleaned := strings.Map(dropSpace, body)
		if decoded, err := base64.StdEncoding.DecodeString(cleaned); err == nil {
			return decoded
		}
		return []byte(body)
	case "quoted-printable":
		return []byte(decodeQuotedPrintable(body))
	default:
		return []byte(body)
	}
}

func dropSpace(r rune) rune {
	switch r {
	case ' ', '\t', '\r', '\n':
		return -1
	}
	return r
}

// decodeQuotedPrintable decodes per RFC 2045: soft line breaks are removed
// and =XX escapes become bytes. Falls back to a manual decode when the
// strict reader rejects the input.
func decodeQuotedPrintable(text string) string {
	if decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(text))); err == nil {
		return string(decoded)
	}

	result := strings.ReplaceAll(text, "=\r\n", "")
	result = strings.ReplaceAll(result, "=\n", "")
	return qpEscape.ReplaceAllStringFunc(result, func(m string) string {
		var b byte
		fmt.Sscanf(m[1:], "%02X", &b)
		return string([]byte{b})
	})
}

// decodeEncodedWords decodes RFC 2047 encoded-words. The standard decoder
// runs first; values it rejects (unknown charsets, loose formatting) fall
// back to a forgiving pattern decode that ignores the charset.
func decodeEncodedWords(value string) string {
	dec := mime.WordDecoder{}
	if decoded, err := dec.DecodeHeader(value); err == nil {
		return decoded
	}

	return encodedWord.ReplaceAllStringFunc(value, func(m string) string {
		groups := encodedWord.FindStringSubmatch(m)
		text := groups[3]
		if strings.EqualFold(groups[2], "B") {
			if decoded, err := base64.StdEncoding.DecodeString(text); err == nil {
				return string(decoded)
			}
			return text
		}
		// Q encoding is quoted-printable with _ standing for space.
		return decodeQuotedPrintable(strings.ReplaceAll(text, "_", " "))
	})
}

// htmlToText flattens an HTML email body to plain text: block elements and
// <br> become newlines, scripts and styles are dropped, and runs of blank
// lines collapse.
func htmlToText(rawHTML string) string {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br":
				sb.WriteString("\n")
				return
			}
			if emailBlockTags[n.Data] {
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && emailBlockTags[n.Data] {
			sb.WriteString("\n")
		}
	}
	walk(root)

	text := multiBlankLines.ReplaceAllString(sb.String(), "\n\n")
	return strings.TrimSpace(text)
}
