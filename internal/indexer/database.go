package indexer

import (
	"context"
	"time"

	"cpindex/internal/query"
	"cpindex/internal/record"
)

// Database is the storage collaborator for records.
// Lookups return (nil, nil) when nothing matches. Bulk operations run in a
// single transaction and leave the table untouched on failure.
type Database interface {
	// InsertRecord stores a new record and returns its id together with the
	// columns dropped as duplicates.
	InsertRecord(ctx context.Context, recordType string, fields []query.Field, actor string, now time.Time) (int64, []string, error)

	// UpdateRecord rewrites the given fields of a record and re-stamps the
	// editor. found is false when no record has that id.
	UpdateRecord(ctx context.Context, id int64, fields []query.Field, actor string, now time.Time) (found bool, dropped []string, err error)

	// FindRecord returns the record with the given id.
	FindRecord(ctx context.Context, id int64) (*record.Record, error)

	// FindRecords returns the existing records among ids, ordered by id.
	FindRecords(ctx context.Context, ids []int64) ([]*record.Record, error)

	// FindRecordsByBooks returns every record of the given books, ordered by type then id.
	FindRecordsByBooks(ctx context.Context, books []string) ([]*record.Record, error)

	// FindAllRecords returns the whole table ordered by id.
	FindAllRecords(ctx context.Context) ([]*record.Record, error)

	// Search runs a search. No books selected yields no records.
	Search(ctx context.Context, c query.Criteria) ([]*record.Record, error)

	// DistinctValues lists the distinct non-empty values of a column, sorted.
	DistinctValues(ctx context.Context, column string) ([]string, error)

	// DeleteRecord deletes one record. deleted is false when it did not exist.
	DeleteRecord(ctx context.Context, id int64) (deleted bool, err error)

	// DeleteRecords deletes every listed record and returns how many went.
	DeleteRecords(ctx context.Context, ids []int64) (int64, error)

	// DeleteBook deletes every record of a book.
	DeleteBook(ctx context.Context, book string) (int64, error)

	// RenameBook moves every record of a book to a new book name.
	RenameBook(ctx context.Context, from, to, actor string, now time.Time) (int64, error)

	// Columns lists the columns of the live records table.
	Columns(ctx context.Context) ([]string, error)

	// ReplaceAll deletes every record and inserts rows in their place.
	ReplaceAll(ctx context.Context, rows [][]query.Field) (int, error)

	// InsertRows inserts pre-shaped rows.
	InsertRows(ctx context.Context, rows [][]query.Field) (int, error)

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error

	// Close closes the database connection.
	Close() error
}

// Cache is the read cache for values derived from the whole table, such as
// the list of books. It is flushed after every write.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Flush()
}
