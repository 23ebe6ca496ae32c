package export

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"cpindex/internal/indexer"
	"cpindex/internal/record"
)

const (
	maxSheetName = 31
	maxColWidth  = 50
	headerColor  = "#1F4788"
)

// XLSXRenderer writes one sheet per record type with the full export
// columns.
type XLSXRenderer struct{}

var _ indexer.Renderer = XLSXRenderer{}

func (XLSXRenderer) Format() string { return FormatXLSX }
func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (XLSXRenderer) Extension() string { return ".xlsx" }

func (XLSXRenderer) Render(w io.Writer, recs []*record.Record, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	first := f.GetSheetName(0)
	used := make(map[string]bool)
	for i, t := range Tables(GroupByType(recs), loc) {
		name := SheetName(t.Type, used)
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return fmt.Errorf("naming sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, t, headerStyle); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t Table, headerStyle int) error {
	widths := make([]int, len(t.Header))
	if err := writeRow(f, sheet, 1, t.Header, widths); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := writeRow(f, sheet, i+2, row, widths); err != nil {
			return err
		}
	}

	last, err := excelize.CoordinatesToCellName(max(len(t.Header), 1), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("styling header of %q: %w", sheet, err)
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(w+2, maxColWidth))); err != nil {
			return fmt.Errorf("sizing column %s of %q: %w", col, sheet, err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, n int, cells []string, widths []int) error {
	vals := make([]any, len(cells))
	for i, c := range cells {
		vals[i] = c
		if l := utf8.RuneCountInString(c); l > widths[i] {
			widths[i] = l
		}
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("writing row %d of %q: %w", n, sheet, err)
	}
	return nil
}

// SheetName turns a type name into a valid, unused sheet name: slashes
// become dashes and the name is cut to 31 runes.
func SheetName(typeName string, used map[string]bool) string {
	base := strings.NewReplacer("/", "-", `\`, "-", "?", "", "*", "", "[", "(", "]", ")", ":", "-").Replace(typeName)
	if base == "" {
		base = "Registros"
	}
	name := cut(base, maxSheetName)
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = cut(base, maxSheetName-len(suffix)) + suffix
	}
	used[name] = true
	return name
}

func cut(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
