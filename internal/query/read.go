package query

import (
	"fmt"
	"strings"

	"cpindex/internal/catalog"
)

// Criteria selects records for a search.
type Criteria struct {
	Term       string
	Books      []string
	Categories []string
	// Page, when set, must equal the page/folio exactly.
	Page string
}

// likeEscaper escapes LIKE metacharacters using backslash.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern returns the substring pattern for a search term.
func LikePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// orderBy sorts by book, then by page ordinal with non-numeric pages last,
// then by the raw page and finally by id.
func orderBy(d Dialect) string {
	ord := d.PageOrdinal(fmt.Sprintf("COALESCE(%s, '')", catalog.FieldPage))
	return fmt.Sprintf(" ORDER BY %s, (%s) IS NULL, %s, %s, %s",
		catalog.FieldBook, ord, ord, catalog.FieldPage, catalog.ColumnID)
}

// BuildSearch builds the search statement. It returns ok=false when no book
// is selected, in which case nothing should be executed.
func BuildSearch(d Dialect, c Criteria) (stmt Statement, ok bool, err error) {
	if len(c.Books) == 0 {
		return Statement{}, false, nil
	}
	fields, err := catalog.SearchFields(c.Categories)
	if err != nil {
		return Statement{}, false, err
	}
	if err := checkIdentifiers(fields...); err != nil {
		return Statement{}, false, err
	}

	var b strings.Builder
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return d.Placeholder(len(args))
	}

	fmt.Fprintf(&b, "SELECT * FROM %s WHERE %s IN (", catalog.Table, catalog.FieldBook)
	for i, book := range c.Books {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(next(book))
	}
	b.WriteString(")")

	if c.Page != "" {
		fmt.Fprintf(&b, " AND %s = %s", catalog.FieldPage, next(c.Page))
	}

	if term := strings.TrimSpace(c.Term); term != "" {
		pattern := next(LikePattern(term))
		conds := make([]string, len(fields))
		for i, f := range fields {
			var expr string
			if f == catalog.ColumnID {
				expr = fmt.Sprintf("CAST(%s AS TEXT)", f)
			} else {
				expr = fmt.Sprintf("COALESCE(%s, '')", f)
			}
			conds[i] = fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, d.Fold(expr), pattern)
		}
		fmt.Fprintf(&b, " AND (%s)", strings.Join(conds, " OR "))
	}

	b.WriteString(orderBy(d))
	return Statement{SQL: b.String(), Args: args}, true, nil
}

// BuildSelectByID selects one record.
func BuildSelectByID(d Dialect, id int64) Statement {
	return Statement{
		SQL:  fmt.Sprintf("SELECT * FROM %s WHERE %s = %s", catalog.Table, catalog.ColumnID, d.Placeholder(1)),
		Args: []any{id},
	}
}

// BuildSelectByIDs selects the listed records ordered by id.
func BuildSelectByIDs(d Dialect, ids []int64) Statement {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return Statement{
		SQL: fmt.Sprintf("SELECT * FROM %s WHERE %s IN (%s) ORDER BY %s",
			catalog.Table, catalog.ColumnID, placeholders(d, 1, len(ids)), catalog.ColumnID),
		Args: args,
	}
}

// BuildSelectByBooks selects every record of the given books grouped by
// type, for export.
func BuildSelectByBooks(d Dialect, books []string) Statement {
	args := make([]any, len(books))
	for i, b := range books {
		args[i] = b
	}
	return Statement{
		SQL: fmt.Sprintf("SELECT * FROM %s WHERE %s IN (%s) ORDER BY %s, %s",
			catalog.Table, catalog.FieldBook, placeholders(d, 1, len(books)), catalog.ColumnType, catalog.ColumnID),
		Args: args,
	}
}

// BuildSelectAll selects the whole table ordered by id.
func BuildSelectAll() Statement {
	return Statement{SQL: fmt.Sprintf("SELECT * FROM %s ORDER BY %s", catalog.Table, catalog.ColumnID)}
}

// BuildDistinct lists the distinct non-empty values of a column.
func BuildDistinct(column string) (Statement, error) {
	if err := checkIdentifiers(column); err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL: fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL AND %s != '' ORDER BY %s",
			column, catalog.Table, column, column, column),
	}, nil
}
