package mock

import "github.com/clefhq/capture"

var _ capture.Converter = (*Converter)(nil)

// Converter is a mock implementation of capture.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
