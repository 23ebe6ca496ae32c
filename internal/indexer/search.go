package indexer

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"cpindex/internal/catalog"
	"cpindex/internal/query"
	"cpindex/internal/record"
)

// Read cache keys.
const (
	cacheKeyBooks     = "books"
	cacheKeyLocations = "locations"
)

// Search runs a category-scoped substring search over the selected books.
// Without books it logs a warning and returns nothing.
func (s *Service) Search(ctx context.Context, c query.Criteria) ([]*record.Record, error) {
	if len(c.Books) == 0 {
		s.logger.Warn("search without books selected", "term", c.Term)
		return nil, nil
	}
	recs, err := s.database.Search(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	s.logger.Debug("search", "term", c.Term, "books", len(c.Books), "categories", c.Categories, "results", len(recs))
	return recs, nil
}

// Summary is the display row of a search result.
type Summary struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Book      string `json:"book"`
	Page      string `json:"page"`
	CreatedBy string `json:"created_by"`
	UpdatedBy string `json:"updated_by"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Summarize converts records into display rows with actors shortened and
// timestamps shown in loc.
func Summarize(recs []*record.Record, loc *time.Location) []Summary {
	out := make([]Summary, len(recs))
	for i, r := range recs {
		out[i] = Summary{
			ID:        r.ID,
			Type:      r.Type,
			Name:      r.PrimaryName(),
			Date:      r.PrimaryDate(),
			Book:      r.Book(),
			Page:      r.Page(),
			CreatedBy: record.DisplayActor(r.CreatedBy),
			UpdatedBy: record.DisplayActor(r.UpdatedBy),
			CreatedAt: record.FormatTimestamp(r.CreatedAt, loc),
			UpdatedAt: record.FormatTimestamp(r.UpdatedAt, loc),
		}
	}
	return out
}

// Row returns the summary as strings in column order, for text tables.
func (m Summary) Row() []string {
	return []string{
		strconv.FormatInt(m.ID, 10), m.Type, m.Name, m.Date, m.Book, m.Page,
		m.CreatedBy, m.UpdatedBy, m.UpdatedAt,
	}
}

// SummaryHeader is the header matching Summary.Row.
var SummaryHeader = []string{"ID", "Tipo", "Nome", "Data", "Livro", "Página/Folha", "Criado por", "Alterado por", "Atualizado em"}

// Books lists the distinct book names. The result is the caller's to modify.
func (s *Service) Books(ctx context.Context) ([]string, error) {
	if v, ok := s.cache.Get(cacheKeyBooks); ok {
		return slices.Clone(v.([]string)), nil
	}
	books, err := s.database.DistinctValues(ctx, catalog.FieldBook)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	s.cache.Set(cacheKeyBooks, books)
	return slices.Clone(books), nil
}

// Locations lists the distinct values of the location fields of every type,
// used as suggestions for the sticky location preset.
func (s *Service) Locations(ctx context.Context) ([]string, error) {
	if v, ok := s.cache.Get(cacheKeyLocations); ok {
		return slices.Clone(v.([]string)), nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, name := range catalog.TypeNames() {
		col := catalog.LocationField(name)
		if col == "" || seen[col] {
			continue
		}
		seen[col] = true
		vals, err := s.database.DistinctValues(ctx, col)
		if err != nil {
			return nil, fmt.Errorf("listing locations: %w", err)
		}
		out = append(out, vals...)
	}
	slices.Sort(out)
	out = slices.Compact(out)
	s.cache.Set(cacheKeyLocations, out)
	return slices.Clone(out), nil
}
