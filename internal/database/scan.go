package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"cpindex/internal/catalog"
	"cpindex/internal/record"
)

// scanRecords reads SELECT * rows into records. The column set is whatever
// the live table has, so values are scanned generically and mapped by name.
func scanRecords(rows *sql.Rows) ([]*record.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []*record.Record
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		for i := range values {
			values[i] = nil
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec := &record.Record{Fields: make(map[string]string)}
		for i, col := range cols {
			if err := assign(rec, col, values[i]); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

func assign(rec *record.Record, col string, v any) error {
	if v == nil {
		return nil
	}
	switch col {
	case catalog.ColumnID:
		id, err := toInt64(v)
		if err != nil {
			return fmt.Errorf("column %s: %w", col, err)
		}
		rec.ID = id
	case catalog.ColumnCreatedAt:
		rec.CreatedAt = toTime(v)
	case catalog.ColumnUpdatedAt:
		rec.UpdatedAt = toTime(v)
	case catalog.ColumnType:
		rec.Type = toString(v)
	case catalog.ColumnCreatedBy:
		rec.CreatedBy = toString(v)
	case catalog.ColumnUpdatedBy:
		rec.UpdatedBy = toString(v)
	default:
		rec.Fields[col] = toString(v)
	}
	return nil
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return 0, fmt.Errorf("%w: %T", errUnexpectedValue, v)
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return record.FormatStorageTime(x)
	}
	return fmt.Sprint(v)
}

func toTime(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x.UTC()
	case string:
		t, _ := record.ParseStorageTime(x)
		return t
	case []byte:
		t, _ := record.ParseStorageTime(string(x))
		return t
	}
	return time.Time{}
}
