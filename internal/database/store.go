package database

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"cpindex/internal/catalog"
	"cpindex/internal/database/migrations"
	"cpindex/internal/indexer"
	"cpindex/internal/query"
	"cpindex/internal/record"
)

// Options tunes statement building.
type Options struct {
	// StrictColumns turns repeated insert columns into an error instead of
	// keeping the first occurrence.
	StrictColumns bool
}

// SQLStore implements indexer.Database over database/sql for both SQLite
// and PostgreSQL. Engine differences live in the query dialect.
type SQLStore struct {
	db           *sql.DB
	dialect      query.Dialect
	migrations   string
	columnsSQL   string
	afterRestore string
	opts         Options
}

// DB exposes the underlying connection pool.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Dialect returns the SQL dialect of the store.
func (s *SQLStore) Dialect() query.Dialect { return s.dialect }

func (s *SQLStore) InsertRecord(ctx context.Context, recordType string, fields []query.Field, actor string, now time.Time) (int64, []string, error) {
	stmt, dropped, err := query.BuildInsert(s.dialect, recordType, fields, actor, now, s.opts.StrictColumns)
	if err != nil {
		return 0, dropped, fmt.Errorf("building insert: %w", err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&id); err != nil {
		return 0, dropped, fmt.Errorf("inserting record: %w", err)
	}
	return id, dropped, nil
}

func (s *SQLStore) UpdateRecord(ctx context.Context, id int64, fields []query.Field, actor string, now time.Time) (bool, []string, error) {
	stmt, dropped, err := query.BuildUpdate(s.dialect, id, fields, actor, now)
	if err != nil {
		return false, dropped, fmt.Errorf("building update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return false, dropped, fmt.Errorf("updating record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dropped, fmt.Errorf("updating record %d: %w", id, err)
	}
	return n > 0, dropped, nil
}

func (s *SQLStore) FindRecord(ctx context.Context, id int64) (*record.Record, error) {
	recs, err := s.queryRecords(ctx, query.BuildSelectByID(s.dialect, id))
	if err != nil {
		return nil, fmt.Errorf("finding record %d: %w", id, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// idBatchSize caps the ids bound in one IN list, well below the SQLite
// (32766) and PostgreSQL (65535) bound parameter limits.
const idBatchSize = 1000

// FindRecords returns the listed records ordered by id. Missing ids are
// skipped.
func (s *SQLStore) FindRecords(ctx context.Context, ids []int64) ([]*record.Record, error) {
	var recs []*record.Record
	for batch := range slices.Chunk(ids, idBatchSize) {
		found, err := s.queryRecords(ctx, query.BuildSelectByIDs(s.dialect, batch))
		if err != nil {
			return nil, fmt.Errorf("finding records: %w", err)
		}
		recs = append(recs, found...)
	}
	slices.SortFunc(recs, func(a, b *record.Record) int { return cmp.Compare(a.ID, b.ID) })
	return recs, nil
}

func (s *SQLStore) FindRecordsByBooks(ctx context.Context, books []string) ([]*record.Record, error) {
	if len(books) == 0 {
		return nil, nil
	}
	recs, err := s.queryRecords(ctx, query.BuildSelectByBooks(s.dialect, books))
	if err != nil {
		return nil, fmt.Errorf("finding records by book: %w", err)
	}
	return recs, nil
}

func (s *SQLStore) FindAllRecords(ctx context.Context) ([]*record.Record, error) {
	recs, err := s.queryRecords(ctx, query.BuildSelectAll())
	if err != nil {
		return nil, fmt.Errorf("reading all records: %w", err)
	}
	return recs, nil
}

func (s *SQLStore) Search(ctx context.Context, c query.Criteria) ([]*record.Record, error) {
	stmt, ok, err := query.BuildSearch(s.dialect, c)
	if err != nil {
		return nil, fmt.Errorf("building search: %w", err)
	}
	if !ok {
		return nil, nil
	}
	recs, err := s.queryRecords(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("searching records: %w", err)
	}
	return recs, nil
}

func (s *SQLStore) DistinctValues(ctx context.Context, column string) ([]string, error) {
	stmt, err := query.BuildDistinct(column)
	if err != nil {
		return nil, err
	}
	return s.queryStrings(ctx, stmt.SQL, stmt.Args...)
}

func (s *SQLStore) DeleteRecord(ctx context.Context, id int64) (bool, error) {
	stmt := query.BuildDelete(s.dialect, id)
	res, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return false, fmt.Errorf("deleting record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting record %d: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLStore) DeleteRecords(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for batch := range slices.Chunk(ids, idBatchSize) {
			count, err := execCount(ctx, tx, query.BuildDeleteMany(s.dialect, batch))
			if err != nil {
				return err
			}
			n += count
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deleting records: %w", err)
	}
	return n, nil
}

func (s *SQLStore) DeleteBook(ctx context.Context, book string) (int64, error) {
	var n int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		n, err = execCount(ctx, tx, query.BuildDeleteByBook(s.dialect, book))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("deleting book %q: %w", book, err)
	}
	return n, nil
}

func (s *SQLStore) RenameBook(ctx context.Context, from, to, actor string, now time.Time) (int64, error) {
	var n int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		n, err = execCount(ctx, tx, query.BuildRenameBook(s.dialect, from, to, actor, now))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("renaming book %q: %w", from, err)
	}
	return n, nil
}

func (s *SQLStore) Columns(ctx context.Context) ([]string, error) {
	cols, err := s.queryStrings(ctx, s.columnsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing columns: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s has no columns (needs migration)", catalog.Table)
	}
	return cols, nil
}

func (s *SQLStore) ReplaceAll(ctx context.Context, rows [][]query.Field) (int, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		del := query.BuildDeleteAll()
		if _, err := tx.ExecContext(ctx, del.SQL); err != nil {
			return fmt.Errorf("clearing table: %w", err)
		}
		if err := insertRows(ctx, tx, s.dialect, rows); err != nil {
			return err
		}
		if s.afterRestore != "" {
			if _, err := tx.ExecContext(ctx, s.afterRestore); err != nil {
				return fmt.Errorf("resetting id sequence: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("replacing records: %w", err)
	}
	return len(rows), nil
}

func (s *SQLStore) InsertRows(ctx context.Context, rows [][]query.Field) (int, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return insertRows(ctx, tx, s.dialect, rows)
	})
	if err != nil {
		return 0, fmt.Errorf("inserting rows: %w", err)
	}
	return len(rows), nil
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db, s.migrations)
}

// Migrate applies pending migrations.
func (s *SQLStore) Migrate() error {
	return migrations.MigrateUp(s.db, s.migrations)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, d query.Dialect, rows [][]query.Field) error {
	for i, row := range rows {
		stmt, err := query.BuildInsertRow(d, row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execCount(ctx context.Context, e execer, stmt query.Statement) (int64, error) {
	res, err := e.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLStore) queryStrings(ctx context.Context, sqlText string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v.Valid {
			out = append(out, v.String)
		}
	}
	return out, rows.Err()
}

func (s *SQLStore) queryRecords(ctx context.Context, stmt query.Statement) ([]*record.Record, error) {
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// errUnexpectedValue marks a column value of a type the scanner cannot map.
var errUnexpectedValue = errors.New("unexpected column value")

// Compile-time check that SQLStore implements indexer.Database interface
var _ indexer.Database = (*SQLStore)(nil)
