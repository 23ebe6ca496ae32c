package export

import (
	"fmt"

	"cpindex/internal/indexer"
)

// Export format names.
const (
	FormatXLSX        = "xlsx"
	FormatPDFTable    = "pdf-table"
	FormatPDFDetailed = "pdf-detailed"
)

// NewRenderers returns the renderers of the enabled formats, in order.
func NewRenderers(formats []string) ([]indexer.Renderer, error) {
	out := make([]indexer.Renderer, 0, len(formats))
	for _, f := range formats {
		switch f {
		case FormatXLSX:
			out = append(out, XLSXRenderer{})
		case FormatPDFTable:
			out = append(out, PDFTableRenderer{})
		case FormatPDFDetailed:
			out = append(out, PDFDetailedRenderer{})
		default:
			return nil, fmt.Errorf("%w: %q", indexer.ErrExportUnavailable, f)
		}
	}
	return out, nil
}
