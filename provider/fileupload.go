package provider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/clefhq/capture"
)

const sheetPreviewRows = 100

// magicRule matches a file signature at a fixed offset.
type magicRule struct {
	offset int
	magic  []byte
	mime   string
}

// Magic-byte signatures checked in order. Each rule guards its own length,
// so short buffers still match the signatures that fit. WebP is
// special-cased in sniffMagic because it needs the RIFF container plus the
// WEBP fourcc at offset 8.
var magicRules = []magicRule{
	{0, []byte("%PDF"), "application/pdf"},
	{0, []byte{0x89, 0x50, 0x4E, 0x47}, "image/png"},
	{0, []byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
	{0, []byte("GIF"), "image/gif"},
	{0, []byte{0x50, 0x4B, 0x03, 0x04}, "application/zip"},
	{0, []byte{0x1F, 0x8B}, "application/gzip"},
}

// mimeByExtension maps lower-case file extensions to MIME types.
var mimeByExtension = map[string]string{
	"txt":  "text/plain",
	"md":   "text/markdown",
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"js":   "application/javascript",
	"ts":   "application/typescript",
	"json": "application/json",
	"xml":  "application/xml",
	"csv":  "text/csv",
	"tsv":  "text/tab-separated-values",
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"mp3":  "audio/mpeg",
	"mp4":  "video/mp4",
	"wav":  "audio/wav",
	"zip":  "application/zip",
	"gz":   "application/gzip",
	"yaml": "application/yaml",
	"yml":  "application/yaml",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"xls":  "application/vnd.ms-excel",
}

// textMIMEs are non-text/* MIME types still decoded as UTF-8 text.
var textMIMEs = map[string]bool{
	"application/json":       true,
	"application/xml":        true,
	"application/javascript": true,
	"application/typescript": true,
	"application/yaml":       true,
}

// sheetMIMEs are spreadsheet formats handled by the sheet previewer.
var sheetMIMEs = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel": true,
}

// archiveMIMEs are archive formats handled by the archive lister.
var archiveMIMEs = map[string]bool{
	"application/zip":  true,
	"application/gzip": true,
}

// Ensure FileUpload implements capture.Provider at compile time.
var _ capture.Provider = (*FileUpload)(nil)

// FileUpload ingests a file buffer: MIME type is detected by magic bytes,
// then extension, then the caller's hint, and content extraction branches
// on the detected type. Optional extraction capabilities (PDF, spreadsheet,
// archive) degrade to placeholder strings when absent.
type FileUpload struct {
	pdf     capture.PDFExtractor
	sheets  capture.SheetPreviewer
	archive capture.ArchiveLister
}

// NewFileUpload creates a new FileUpload provider. Any capability may be
// nil; the corresponding file types then yield placeholder content.
func NewFileUpload(pdf capture.PDFExtractor, sheets capture.SheetPreviewer, archive capture.ArchiveLister) *FileUpload {
	return &FileUpload{pdf: pdf, sheets: sheets, archive: archive}
}

func (p *FileUpload) ID() string { return "file_upload" }

func (p *FileUpload) DisplayName() string { return "File Upload" }

func (p *FileUpload) Supports(input *capture.CaptureInput) bool {
	return input.Kind == capture.KindFile
}

func (p *FileUpload) Capture(ctx context.Context, input *capture.CaptureInput, config *capture.CaptureConfig) (*capture.CaptureItem, error) {
	if !p.Supports(input) {
		return nil, capture.Errorf(capture.EINVALID, "file_upload does not support input kind %q", input.Kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mimeType := detectMIME(input.Data, input.Path, input.MIMEHint)

	fileName := filepath.Base(input.Path)
	if fileName == "." || fileName == "/" || fileName == "" {
		fileName = "unknown"
	}
	extension := strings.TrimPrefix(strings.ToLower(filepath.Ext(input.Path)), ".")

	content := p.extractContent(input.Data, fileName, mimeType)

	sum := sha256.Sum256(input.Data)

	meta := newMetadata(p.ID())
	meta.MIMEType = mimeType
	meta.Extra = map[string]any{
		"fileName":     fileName,
		"extension":    extension,
		"sizeBytes":    len(input.Data),
		"sha256":       hex.EncodeToString(sum[:]),
		"originalPath": input.Path,
	}
	if strings.HasPrefix(mimeType, "image/") {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(input.Data)); err == nil {
			meta.Extra["dimensions"] = map[string]any{
				"width":  cfg.Width,
				"height": cfg.Height,
			}
		}
	}

	return &capture.CaptureItem{
		Content:        content,
		SourceMetadata: meta,
		RawData:        clampRaw(input.Data, config),
	}, nil
}

func (p *FileUpload) extractContent(data []byte, fileName, mimeType string) string {
	describe := func(label string) string {
		return fmt.Sprintf("[%s: %s] (%s, %s)", label, fileName, formatBytes(len(data)), mimeType)
	}

	switch {
	case strings.HasPrefix(mimeType, "text/") || textMIMEs[mimeType]:
		return string(data)

	case mimeType == "application/pdf":
		if p.pdf != nil {
			if text, err := p.pdf.ExtractText(data); err == nil {
				return text
			}
		}
		return describe("PDF content")

	case sheetMIMEs[mimeType]:
		if p.sheets != nil {
			if preview, err := p.sheets.Preview(data, sheetPreviewRows); err == nil {
				return preview
			}
		}
		return describe("Spreadsheet")

	case archiveMIMEs[mimeType]:
		if p.archive != nil {
			if entries, err := p.archive.List(data, mimeType); err == nil {
				return strings.Join(entries, "\n")
			}
		}
		return describe("Archive")

	case strings.HasPrefix(mimeType, "image/"):
		return describe("Image")

	default:
		return describe("Binary file")
	}
}

// detectMIME resolves a MIME type by magic bytes, then extension, then the
// caller's hint, then the octet-stream fallback.
func detectMIME(data []byte, path, hint string) string {
	if m := sniffMagic(data); m != "" {
		return m
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if m, ok := mimeByExtension[ext]; ok {
		return m
	}
	if hint != "" {
		return hint
	}
	return "application/octet-stream"
}

func sniffMagic(data []byte) string {
	if len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return "image/webp"
	}
	for _, rule := range magicRules {
		if len(data) >= rule.offset+len(rule.magic) &&
			bytes.Equal(data[rule.offset:rule.offset+len(rule.magic)], rule.magic) {
			return rule.mime
		}
	}
	return ""
}
