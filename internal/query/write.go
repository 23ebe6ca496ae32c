package query

import (
	"fmt"
	"strings"
	"time"

	"cpindex/internal/catalog"
)

// Dedupe keeps the first occurrence of every column and drops the rest,
// together with their values. It returns the kept fields in order and the
// names of the dropped duplicates.
func Dedupe(fields []Field) (kept []Field, dropped []string) {
	seen := make(map[string]bool, len(fields))
	kept = make([]Field, 0, len(fields))
	for _, f := range fields {
		if seen[f.Column] {
			dropped = append(dropped, f.Column)
			continue
		}
		seen[f.Column] = true
		kept = append(kept, f)
	}
	return kept, dropped
}

// auditInsert returns the audit fields stamped on a new record.
func auditInsert(actor string, now time.Time) []Field {
	now = now.UTC()
	return []Field{
		{Column: catalog.ColumnCreatedBy, Value: actor},
		{Column: catalog.ColumnUpdatedBy, Value: actor},
		{Column: catalog.ColumnCreatedAt, Value: now},
		{Column: catalog.ColumnUpdatedAt, Value: now},
	}
}

// BuildInsert builds the INSERT for a new record. The column list is the
// discriminator, the given fields, then the audit columns. Repeated columns
// keep their first occurrence; in strict mode they are an error instead.
// The statement returns the new id.
func BuildInsert(d Dialect, recordType string, fields []Field, actor string, now time.Time, strict bool) (Statement, []string, error) {
	all := make([]Field, 0, len(fields)+5)
	all = append(all, Field{Column: catalog.ColumnType, Value: recordType})
	all = append(all, fields...)
	all = append(all, auditInsert(actor, now)...)

	kept, dropped := Dedupe(all)
	if strict && len(dropped) > 0 {
		return Statement{}, dropped, fmt.Errorf("%w: %s", ErrDuplicateColumn, strings.Join(dropped, ", "))
	}
	if err := checkIdentifiers(Columns(kept)...); err != nil {
		return Statement{}, dropped, err
	}
	return buildInsertRow(d, kept, "RETURNING "+catalog.ColumnID), dropped, nil
}

// BuildInsertRow builds a plain INSERT of the given fields. Used by restore
// and import, where the caller has already shaped the row.
func BuildInsertRow(d Dialect, fields []Field) (Statement, error) {
	if err := checkIdentifiers(Columns(fields)...); err != nil {
		return Statement{}, err
	}
	return buildInsertRow(d, fields, ""), nil
}

func buildInsertRow(d Dialect, fields []Field, suffix string) Statement {
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f.Value
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		catalog.Table, strings.Join(Columns(fields), ", "), placeholders(d, 1, len(fields)))
	if suffix != "" {
		sql += " " + suffix
	}
	return Statement{SQL: sql, Args: args}
}

// reserved columns never set from a business field map.
func reserved(col string) bool {
	switch col {
	case catalog.ColumnID, catalog.ColumnType,
		catalog.ColumnCreatedBy, catalog.ColumnUpdatedBy,
		catalog.ColumnCreatedAt, catalog.ColumnUpdatedAt:
		return true
	}
	return false
}

// BuildUpdate builds the UPDATE of one record. The editor and update time
// are always assigned, even when fields is empty. Business fields naming a
// reserved column are dropped, as are repeated columns after the first.
func BuildUpdate(d Dialect, id int64, fields []Field, actor string, now time.Time) (Statement, []string, error) {
	var business []Field
	var dropped []string
	for _, f := range fields {
		if reserved(f.Column) {
			dropped = append(dropped, f.Column)
			continue
		}
		business = append(business, f)
	}
	business, dup := Dedupe(business)
	dropped = append(dropped, dup...)

	all := append(business,
		Field{Column: catalog.ColumnUpdatedBy, Value: actor},
		Field{Column: catalog.ColumnUpdatedAt, Value: now.UTC()},
	)
	if err := checkIdentifiers(Columns(all)...); err != nil {
		return Statement{}, dropped, err
	}

	sets := make([]string, len(all))
	args := make([]any, 0, len(all)+1)
	for i, f := range all {
		sets[i] = fmt.Sprintf("%s = %s", f.Column, d.Placeholder(i+1))
		args = append(args, f.Value)
	}
	args = append(args, id)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		catalog.Table, strings.Join(sets, ", "), catalog.ColumnID, d.Placeholder(len(all)+1))
	return Statement{SQL: sql, Args: args}, dropped, nil
}

// BuildDelete deletes one record by id.
func BuildDelete(d Dialect, id int64) Statement {
	return Statement{
		SQL:  fmt.Sprintf("DELETE FROM %s WHERE %s = %s", catalog.Table, catalog.ColumnID, d.Placeholder(1)),
		Args: []any{id},
	}
}

// BuildDeleteMany deletes every listed id.
func BuildDeleteMany(d Dialect, ids []int64) Statement {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return Statement{
		SQL:  fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", catalog.Table, catalog.ColumnID, placeholders(d, 1, len(ids))),
		Args: args,
	}
}

// BuildDeleteByBook deletes every record of a source book.
func BuildDeleteByBook(d Dialect, book string) Statement {
	return Statement{
		SQL:  fmt.Sprintf("DELETE FROM %s WHERE %s = %s", catalog.Table, catalog.FieldBook, d.Placeholder(1)),
		Args: []any{book},
	}
}

// BuildDeleteAll empties the records table.
func BuildDeleteAll() Statement {
	return Statement{SQL: "DELETE FROM " + catalog.Table}
}

// BuildRenameBook moves every record of one book to another name and
// stamps the editor on each moved record.
func BuildRenameBook(d Dialect, from, to, actor string, now time.Time) Statement {
	return Statement{
		SQL: fmt.Sprintf("UPDATE %s SET %s = %s, %s = %s, %s = %s WHERE %s = %s",
			catalog.Table,
			catalog.FieldBook, d.Placeholder(1),
			catalog.ColumnUpdatedBy, d.Placeholder(2),
			catalog.ColumnUpdatedAt, d.Placeholder(3),
			catalog.FieldBook, d.Placeholder(4)),
		Args: []any{to, actor, now.UTC(), from},
	}
}
