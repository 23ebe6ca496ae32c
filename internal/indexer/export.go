package indexer

import (
	"context"
	"fmt"
	"io"
	"time"

	"cpindex/internal/record"
)

// Renderer turns records into a document in one export format.
type Renderer interface {
	// Format is the name the format is selected by, such as "xlsx".
	Format() string
	// ContentType is the MIME type of the rendered document.
	ContentType() string
	// Extension is the file name extension including the dot.
	Extension() string
	// Render writes the document for recs, grouped and ordered by the
	// renderer, with timestamps shown in loc.
	Render(w io.Writer, recs []*record.Record, loc *time.Location) error
}

// Formats lists the enabled export formats in configuration order.
func (s *Service) Formats() []string {
	return append([]string(nil), s.formats...)
}

// Renderer returns the renderer of an enabled format.
func (s *Service) Renderer(format string) (Renderer, error) {
	r, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrExportUnavailable, format)
	}
	return r, nil
}

// Export renders every record of the selected books in the given format and
// returns how many records were written. Without books, or when the books
// hold no records, nothing is written and the count is zero.
func (s *Service) Export(ctx context.Context, format string, books []string, w io.Writer) (int, error) {
	r, err := s.Renderer(format)
	if err != nil {
		return 0, err
	}
	if len(books) == 0 {
		s.logger.Warn("export without books selected", "format", format)
		return 0, nil
	}

	recs, err := s.database.FindRecordsByBooks(ctx, books)
	if err != nil {
		return 0, fmt.Errorf("reading records for export: %w", err)
	}
	if len(recs) == 0 {
		s.logger.Warn("export found no records", "format", format, "books", books)
		return 0, nil
	}

	if err := r.Render(w, recs, s.loc); err != nil {
		return 0, fmt.Errorf("rendering %s: %w", format, err)
	}
	s.logger.Info("export rendered", "format", format, "books", len(books), "records", len(recs))
	return len(recs), nil
}
