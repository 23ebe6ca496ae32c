// Package query builds the parameterized SQL statements issued against the
// records table. Column names always come from the catalog or from the live
// table and are checked before use; values are always bound parameters.
package query

import (
	"errors"
	"fmt"
	"strings"

	"cpindex/internal/catalog"
)

var (
	// ErrDuplicateColumn is returned in strict mode when a column repeats.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrInvalidIdentifier is returned for column names that are not storage safe.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// Field is one column/value pair of a statement.
type Field struct {
	Column string
	Value  any
}

// Statement is SQL text plus its bound arguments.
type Statement struct {
	SQL  string
	Args []any
}

// Columns returns the column names of fields in order.
func Columns(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Column
	}
	return out
}

func checkIdentifiers(cols ...string) error {
	for _, c := range cols {
		if !catalog.ValidIdentifier(c) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, c)
		}
	}
	return nil
}

// placeholders returns n dialect placeholders starting at position start.
func placeholders(d Dialect, start, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = d.Placeholder(start + i)
	}
	return strings.Join(ps, ", ")
}
