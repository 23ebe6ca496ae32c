// Package export projects records into per-type tables and narratives and
// renders them as spreadsheets or PDF documents.
package export

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cpindex/internal/catalog"
	"cpindex/internal/record"
)

const (
	// PagePlaceholder stands in for an empty page/folio.
	PagePlaceholder = "—"

	// Compact tables cut values longer than compactLimit runes.
	compactLimit = 50
	compactKeep  = 47
	ellipsis     = "..."

	// Narrative values longer than wrapLimit runes are wrapped.
	wrapLimit = 60

	partySeparator = ", "
	partyBullet    = "- "
)

// Group holds the records of one type.
type Group struct {
	Type    string
	Records []*record.Record
}

// GroupByType splits records by type in catalog order, keeping the input
// order within each group. Types missing from the catalog follow in order
// of appearance.
func GroupByType(recs []*record.Record) []Group {
	byType := make(map[string][]*record.Record)
	var extra []string
	for _, r := range recs {
		if _, ok := byType[r.Type]; !ok {
			if _, known := catalog.Lookup(r.Type); !known {
				extra = append(extra, r.Type)
			}
		}
		byType[r.Type] = append(byType[r.Type], r)
	}

	var out []Group
	for _, name := range append(catalog.TypeNames(), extra...) {
		if rs := byType[name]; len(rs) > 0 {
			out = append(out, Group{Type: name, Records: rs})
		}
	}
	return out
}

// Table is the tabular projection of one group.
type Table struct {
	Type    string
	Columns []string
	Header  []string
	Rows    [][]string
}

// Tables projects every group onto its export columns. Columns outside that
// order are dropped.
func Tables(groups []Group, loc *time.Location) []Table {
	return project(groups, loc, catalog.ExportColumnsFor, nil)
}

// CompactTables projects every group onto its listing columns with long
// values truncated.
func CompactTables(groups []Group, loc *time.Location) []Table {
	return project(groups, loc, catalog.TableColumnsFor, Truncate)
}

func project(groups []Group, loc *time.Location, columns func(string) []string, shorten func(string) string) []Table {
	out := make([]Table, 0, len(groups))
	for _, g := range groups {
		cols := columns(g.Type)
		t := Table{
			Type:    g.Type,
			Columns: cols,
			Header:  catalog.Labels(cols),
			Rows:    make([][]string, len(g.Records)),
		}
		for i, r := range g.Records {
			row := make([]string, len(cols))
			for j, c := range cols {
				v := Cell(r, c, loc)
				if shorten != nil {
					v = shorten(v)
				}
				row[j] = v
			}
			t.Rows[i] = row
		}
		out = append(out, t)
	}
	return out
}

// Cell returns the display value of a column: parties joined with a comma,
// the page placeholder for an empty page, actors without their domain and
// timestamps in loc. Other empty values stay empty.
func Cell(r *record.Record, column string, loc *time.Location) string {
	switch column {
	case catalog.FieldPage:
		if p := r.Page(); p != "" {
			return p
		}
		return PagePlaceholder
	case catalog.FieldParties:
		return strings.Join(r.Parties(), partySeparator)
	case catalog.ColumnCreatedBy:
		return record.DisplayActor(r.CreatedBy)
	case catalog.ColumnUpdatedBy:
		return record.DisplayActor(r.UpdatedBy)
	case catalog.ColumnCreatedAt:
		return record.FormatTimestamp(r.CreatedAt, loc)
	case catalog.ColumnUpdatedAt:
		return record.FormatTimestamp(r.UpdatedAt, loc)
	}
	return r.Value(column)
}

// Truncate shortens values longer than the compact limit.
func Truncate(v string) string {
	if utf8.RuneCountInString(v) <= compactLimit {
		return v
	}
	return string([]rune(v)[:compactKeep]) + ellipsis
}

// Entry is one label/value pair of a narrative.
type Entry struct {
	Label string
	Value string
	// Lines holds the value split for display; parties get one line each.
	Lines []string
	// Wrap marks values long enough to be set as a flowing paragraph.
	Wrap bool
}

// Narrative is the detailed projection of one record.
type Narrative struct {
	Heading string
	Entries []Entry
}

// NarrativeGroup holds the narratives of one type.
type NarrativeGroup struct {
	Type       string
	Narratives []Narrative
}

// Narratives projects every record onto labelled entries in export order.
func Narratives(groups []Group, loc *time.Location) []NarrativeGroup {
	out := make([]NarrativeGroup, 0, len(groups))
	for _, g := range groups {
		cols := catalog.ExportColumnsFor(g.Type)
		ng := NarrativeGroup{Type: g.Type, Narratives: make([]Narrative, len(g.Records))}
		for i, r := range g.Records {
			n := Narrative{
				Heading: fmt.Sprintf("Registro #%d - ID: %d - %s", i+1, r.ID, r.PrimaryName()),
				Entries: make([]Entry, 0, len(cols)),
			}
			for _, c := range cols {
				n.Entries = append(n.Entries, entry(r, c, loc))
			}
			ng.Narratives[i] = n
		}
		out = append(out, ng)
	}
	return out
}

func entry(r *record.Record, column string, loc *time.Location) Entry {
	e := Entry{Label: catalog.Label(column)}
	if column == catalog.FieldParties {
		for _, p := range r.Parties() {
			e.Lines = append(e.Lines, partyBullet+p)
		}
		e.Value = strings.Join(e.Lines, "\n")
		return e
	}
	e.Value = Cell(r, column, loc)
	if e.Value != "" {
		e.Lines = []string{e.Value}
	}
	e.Wrap = utf8.RuneCountInString(e.Value) > wrapLimit
	return e
}
