// Package tabular reads and writes header-plus-rows tables as CSV or XLSX.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Supported formats.
const (
	CSV  = "csv"
	XLSX = "xlsx"
)

// ErrUnknownFormat is returned for formats other than CSV and XLSX.
var ErrUnknownFormat = errors.New("unknown table format")

// ErrEmpty is returned when the input has no header row.
var ErrEmpty = errors.New("table has no header row")

// Table is a header row followed by data rows. Every row has exactly as
// many cells as the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// FormatFromName picks the format from a file name extension.
func FormatFromName(name string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		return CSV, nil
	case ".xlsx":
		return XLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// Read parses r in the given format.
func Read(format string, r io.Reader) (*Table, error) {
	switch format {
	case CSV:
		return ReadCSV(r)
	case XLSX:
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ReadCSV parses a comma-separated table. A leading UTF-8 byte order mark
// is ignored.
func ReadCSV(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	return newTable(records)
}

// WriteCSV writes t as comma-separated values.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing csv rows: %w", err)
	}
	return nil
}

// ReadXLSX parses the first sheet of a workbook.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return newTable(rows)
}

// newTable takes the first non-blank row as header and pads or trims every
// other row to the header width. Blank rows are skipped.
func newTable(records [][]string) (*Table, error) {
	var t *Table
	for _, rec := range records {
		if blank(rec) {
			continue
		}
		if t == nil {
			header := make([]string, len(rec))
			for i, h := range rec {
				header[i] = strings.TrimSpace(h)
			}
			t = &Table{Header: header}
			continue
		}
		row := make([]string, len(t.Header))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	if t == nil {
		return nil, ErrEmpty
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
