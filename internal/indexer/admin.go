package indexer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"cpindex/internal/catalog"
	"cpindex/internal/query"
	"cpindex/internal/record"
	"cpindex/internal/tabular"
)

// Backup object naming.
const (
	BackupPrefix       = "backup-"
	backupExt          = ".csv"
	encryptedExt       = ".age"
	backupTimestampFmt = "20060102T150405Z"
)

// Backup writes every record, with every live column, as CSV. Admin only.
func (s *Service) Backup(ctx context.Context, actor Actor, w io.Writer) (int, error) {
	if err := requireAdmin(actor, "backup"); err != nil {
		return 0, err
	}

	cols, err := s.database.Columns(ctx)
	if err != nil {
		return 0, fmt.Errorf("backup: %w", err)
	}
	recs, err := s.database.FindAllRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("backup: %w", err)
	}

	t := &tabular.Table{Header: cols, Rows: make([][]string, len(recs))}
	for i, r := range recs {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = r.Value(c)
		}
		t.Rows[i] = row
	}
	if err := tabular.WriteCSV(w, t); err != nil {
		return 0, fmt.Errorf("backup: %w", err)
	}

	s.logger.Info("backup written", "records", len(recs), "actor", actor.Email)
	return len(recs), nil
}

// BackupToVault stores a backup in the configured vault, encrypted when an
// encryptor is configured, and returns its key.
func (s *Service) BackupToVault(ctx context.Context, actor Actor) (string, error) {
	if s.vault == nil {
		return "", ErrNoVault
	}

	var plain bytes.Buffer
	n, err := s.Backup(ctx, actor, &plain)
	if err != nil {
		return "", err
	}

	key := BackupPrefix + s.now().Format(backupTimestampFmt) + "-" + s.idgen.New() + backupExt
	body := &plain
	if s.encryptor != nil {
		var sealed bytes.Buffer
		if err := s.encryptor.Encrypt(&plain, &sealed); err != nil {
			return "", fmt.Errorf("encrypting backup: %w", err)
		}
		body = &sealed
		key += encryptedExt
	}

	if err := s.vault.PutObject(key, body, int64(body.Len())); err != nil {
		return "", fmt.Errorf("storing backup %s: %w", key, err)
	}
	s.logger.Info("backup stored", "key", key, "records", n, "actor", actor.Email)
	return key, nil
}

// ListBackups returns the backup keys in the vault, oldest first.
func (s *Service) ListBackups() ([]string, error) {
	if s.vault == nil {
		return nil, ErrNoVault
	}
	keys, err := s.vault.ListObjects(BackupPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}
	return keys, nil
}

// IsEncryptedBackup reports whether a backup key names an encrypted object.
func IsEncryptedBackup(key string) bool {
	return strings.HasSuffix(key, encryptedExt)
}

// RestoreFromVault replaces every record with the contents of a stored
// backup. dec is required for encrypted backups and ignored otherwise.
func (s *Service) RestoreFromVault(ctx context.Context, actor Actor, key string, dec DecryptionContext) (int, error) {
	if err := requireAdmin(actor, "restore"); err != nil {
		return 0, err
	}
	if s.vault == nil {
		return 0, ErrNoVault
	}

	var stored bytes.Buffer
	if err := s.vault.GetObject(key, &stored); err != nil {
		return 0, fmt.Errorf("fetching backup %s: %w", key, err)
	}

	body := &stored
	if IsEncryptedBackup(key) {
		if dec == nil {
			return 0, fmt.Errorf("backup %s is encrypted and no key was unlocked", key)
		}
		var plain bytes.Buffer
		if err := dec.Decrypt(&stored, &plain); err != nil {
			return 0, fmt.Errorf("decrypting backup %s: %w", key, err)
		}
		body = &plain
	}
	return s.Restore(ctx, actor, body)
}

// Restore deletes every record and inserts the rows of a CSV backup in one
// transaction. Ids and audit columns are preserved. Columns the live table
// lacks are dropped. Admin only.
func (s *Service) Restore(ctx context.Context, actor Actor, r io.Reader) (int, error) {
	if err := requireAdmin(actor, "restore"); err != nil {
		return 0, err
	}

	t, err := tabular.ReadCSV(r)
	if err != nil {
		return 0, fmt.Errorf("restore: %w", err)
	}
	live, err := s.database.Columns(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore: %w", err)
	}

	cols, dropped := matchColumns(t.Header, func(c string) bool { return slices.Contains(live, c) })
	if !slices.Contains(colNames(cols), catalog.ColumnID) {
		return 0, fmt.Errorf("restore: backup has no %s column", catalog.ColumnID)
	}
	if len(dropped) > 0 {
		s.logger.Warn("restore dropped unknown columns", "columns", dropped)
	}

	rows := make([][]query.Field, 0, len(t.Rows))
	for i, raw := range t.Rows {
		row := make([]query.Field, 0, len(cols))
		for _, c := range cols {
			v, err := storageValue(c.name, raw[c.index])
			if err != nil {
				return 0, fmt.Errorf("restore: row %d: %w", i+2, err)
			}
			row = append(row, query.Field{Column: c.name, Value: v})
		}
		rows = append(rows, row)
	}

	n, err := s.database.ReplaceAll(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("restore: %w", err)
	}
	s.invalidate()

	s.logger.Info("backup restored", "records", n, "actor", actor.Email)
	return n, nil
}

// ImportRequest describes a spreadsheet ingest.
type ImportRequest struct {
	// Type is the record type stamped on every row.
	Type string
	// Book is forced into every row, overriding any book column.
	Book string
	// Format is tabular.CSV or tabular.XLSX.
	Format string
	Data   io.Reader
}

// ImportResult reports an ingest.
type ImportResult struct {
	Imported int
	// Dropped lists the normalized headers that were not imported.
	Dropped []string
}

// Import appends the rows of a spreadsheet as records of one type in one
// book. Headers are normalized to identifiers; id, discriminator, audit and
// book columns are replaced, and columns the type or the live table lacks
// are dropped. Party lists are stored in the form's "; " layout. Blank rows
// are skipped. Admin only.
func (s *Service) Import(ctx context.Context, actor Actor, req ImportRequest) (ImportResult, error) {
	if err := requireAdmin(actor, "import"); err != nil {
		return ImportResult{}, err
	}
	if _, ok := catalog.Lookup(req.Type); !ok {
		return ImportResult{}, fmt.Errorf("%w: %q", ErrUnknownType, req.Type)
	}
	if strings.TrimSpace(req.Book) == "" {
		return ImportResult{}, fmt.Errorf("import: book name is required")
	}

	t, err := tabular.Read(req.Format, req.Data)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}
	live, err := s.database.Columns(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}

	cols, dropped := matchColumns(t.Header, func(c string) bool {
		return c != catalog.FieldBook && catalog.Applies(req.Type, c) && slices.Contains(live, c)
	})

	now := s.now()
	var rows [][]query.Field
	for _, raw := range t.Rows {
		row := make([]query.Field, 0, len(cols)+6)
		row = append(row, query.Field{Column: catalog.ColumnType, Value: req.Type})
		empty := true
		for _, c := range cols {
			v := strings.TrimSpace(raw[c.index])
			if c.name == catalog.FieldParties {
				v = record.JoinParties(record.PartyEntries(v))
			}
			if v != "" {
				empty = false
			}
			row = append(row, query.Field{Column: c.name, Value: nullable(v)})
		}
		if empty {
			continue
		}
		row = append(row,
			query.Field{Column: catalog.FieldBook, Value: req.Book},
			query.Field{Column: catalog.ColumnCreatedBy, Value: actor.Email},
			query.Field{Column: catalog.ColumnUpdatedBy, Value: actor.Email},
			query.Field{Column: catalog.ColumnCreatedAt, Value: now},
			query.Field{Column: catalog.ColumnUpdatedAt, Value: now},
		)
		rows = append(rows, row)
	}

	n, err := s.database.InsertRows(ctx, rows)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}
	s.invalidate()

	if len(dropped) > 0 {
		s.logger.Warn("import dropped columns", "columns", dropped)
	}
	s.logger.Info("records imported", "type", req.Type, "book", req.Book, "records", n, "actor", actor.Email)
	return ImportResult{Imported: n, Dropped: dropped}, nil
}

// RenameBook moves every record of a book to a new name. Admin only.
func (s *Service) RenameBook(ctx context.Context, actor Actor, from, to string) (int64, error) {
	if err := requireAdmin(actor, "renaming book"); err != nil {
		return 0, err
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return 0, fmt.Errorf("renaming book %q: new name is empty", from)
	}

	n, err := s.database.RenameBook(ctx, from, to, actor.Email, s.now())
	if err != nil {
		return 0, err
	}
	s.invalidate()

	s.logger.Info("book renamed", "from", from, "to", to, "records", n, "actor", actor.Email)
	return n, nil
}

type column struct {
	name  string
	index int
}

// matchColumns normalizes a header row and keeps the first occurrence of
// every column accepted by keep. Everything else is reported as dropped.
func matchColumns(header []string, keep func(string) bool) (cols []column, dropped []string) {
	seen := make(map[string]bool)
	for i, h := range header {
		name := catalog.Normalize(strings.TrimSpace(h))
		if name == "" {
			continue
		}
		if seen[name] || !keep(name) {
			dropped = append(dropped, name)
			continue
		}
		seen[name] = true
		cols = append(cols, column{name: name, index: i})
	}
	return cols, dropped
}

func colNames(cols []column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

// storageValue converts a backup cell into the value bound for its column.
func storageValue(col, v string) (any, error) {
	switch col {
	case catalog.ColumnID:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", v)
		}
		return id, nil
	case catalog.ColumnCreatedAt, catalog.ColumnUpdatedAt:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		t, ok := record.ParseStorageTime(v)
		if !ok {
			return nil, fmt.Errorf("invalid %s %q", col, v)
		}
		return t, nil
	}
	return nullable(v), nil
}

// nullable stores empty cells as NULL so they stay absent from records.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
