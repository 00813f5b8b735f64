package mock

import "github.com/clefhq/capture"

var _ capture.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of capture.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*capture.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*capture.ExtractResult, error) {
	return e.ExtractFn(html)
}

var _ capture.PDFExtractor = (*PDFExtractor)(nil)

// PDFExtractor is a mock implementation of capture.PDFExtractor.
type PDFExtractor struct {
	ExtractTextFn func(data []byte) (string, error)
}

func (e *PDFExtractor) ExtractText(data []byte) (string, error) {
	return e.ExtractTextFn(data)
}

var _ capture.SheetPreviewer = (*SheetPreviewer)(nil)

// SheetPreviewer is a mock implementation of capture.SheetPreviewer.
type SheetPreviewer struct {
	PreviewFn func(data []byte, maxRows int) (string, error)
}

func (p *SheetPreviewer) Preview(data []byte, maxRows int) (string, error) {
	return p.PreviewFn(data, maxRows)
}

var _ capture.ArchiveLister = (*ArchiveLister)(nil)

// ArchiveLister is a mock implementation of capture.ArchiveLister.
type ArchiveLister struct {
	ListFn func(data []byte, mimeType string) ([]string, error)
}

func (l *ArchiveLister) List(data []byte, mimeType string) ([]string, error) {
	return l.ListFn(data, mimeType)
}
