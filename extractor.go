package capture

// ExtractResult holds the extracted content from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// Text is the main content as plain text.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	Text string
}

// Extractor extracts main article content from HTML pages, removing
// boilerplate.
type Extractor interface {
	// Extract processes raw HTML and returns the main content.
	// It fails with ENOTFOUND when no candidate content container exists.
	Extract(html string) (*ExtractResult, error)
}

// PDFExtractor extracts plain text from PDF bytes. A nil capability
// degrades to a placeholder string in the file-upload provider.
type PDFExtractor interface {
	ExtractText(data []byte) (string, error)
}

// SheetPreviewer renders a preview of a spreadsheet: up to maxRows rows of
// the first sheet as tab-separated text.
type SheetPreviewer interface {
	Preview(data []byte, maxRows int) (string, error)
}

// ArchiveLister lists the entry paths contained in an archive.
type ArchiveLister interface {
	List(data []byte, mimeType string) ([]string, error)
}
