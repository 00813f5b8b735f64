package capture

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms HTML content into Markdown.
	// The input should be a content region (e.g., an <article> body).
	// Returns the Markdown representation of the content.
	Convert(html string) (string, error)
}
