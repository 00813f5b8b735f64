// Package zip implements capture.ArchiveLister for ZIP and GZIP data.
package zip

import (
	"archive/zip"
	"bytes"
	"compress/gzip"

	"github.com/clefhq/capture"
)

// Ensure Lister implements capture.ArchiveLister at compile time.
var _ capture.ArchiveLister = (*Lister)(nil)

// Lister lists archive entries without extracting them.
type Lister struct{}

// NewLister creates a new Lister.
func NewLister() *Lister {
	return &Lister{}
}

// List returns the entry paths of the archive. ZIP archives yield one path
// per entry in archive order. GZIP holds a single member, so the result is
// the stored original name when the header carries one.
func (l *Lister) List(data []byte, mimeType string) ([]string, error) {
	switch mimeType {
	case "application/zip":
		return listZip(data)
	case "application/gzip":
		return listGzip(data)
	default:
		return nil, capture.Errorf(capture.EUNSUPPORTED, "unsupported archive type %q", mimeType)
	}
}

func listZip(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, capture.Errorf(capture.EINVALID, "reading zip archive: %v", err)
	}
	entries := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		entries = append(entries, f.Name)
	}
	return entries, nil
}

func listGzip(data []byte) ([]string, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, capture.Errorf(capture.EINVALID, "reading gzip stream: %v", err)
	}
	defer gz.Close()

	if gz.Name != "" {
		return []string{gz.Name}, nil
	}
	return nil, nil
}
