package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"cpindex/internal/indexer"
	"cpindex/internal/record"
)

const (
	pdfFont       = "Helvetica"
	pdfLineHeight = 5.0
	pdfMargin     = 10.0
)

// rgb is a fill or text colour.
type rgb struct{ r, g, b int }

var (
	headerFill = rgb{0x1f, 0x47, 0x88}
	stripeFill = rgb{0xf0, 0xf0, 0xf0}
	white      = rgb{0xff, 0xff, 0xff}
	black      = rgb{0, 0, 0}
)

// newPDF creates a document with the core font and a page footer. tr
// converts UTF-8 text to the code page of the core fonts.
func newPDF(orientation, size, title string) (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New(orientation, "mm", size, "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin+5)
	pdf.SetTitle(title, true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin - 2)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.SetTextColor(black.r, black.g, black.b)
		pdf.CellFormat(0, pdfLineHeight, tr(fmt.Sprintf("Página %d/{nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	return pdf, tr
}

func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }

// PDFTableRenderer writes a landscape A3 document with one compact table
// per record type.
type PDFTableRenderer struct{}

var _ indexer.Renderer = PDFTableRenderer{}

func (PDFTableRenderer) Format() string      { return FormatPDFTable }
func (PDFTableRenderer) ContentType() string { return "application/pdf" }
func (PDFTableRenderer) Extension() string   { return ".pdf" }

func (PDFTableRenderer) Render(w io.Writer, recs []*record.Record, loc *time.Location) error {
	pdf, tr := newPDF("L", "A3", "Índice de registros")

	for _, t := range CompactTables(GroupByType(recs), loc) {
		pdf.AddPage()
		pdf.SetFont(pdfFont, "B", 14)
		setText(pdf, black)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("%s (%d)", t.Type, len(t.Rows))), "", 1, "L", false, 0, "")

		pageW, _ := pdf.GetPageSize()
		colW := (pageW - 2*pdfMargin) / float64(max(len(t.Header), 1))

		header := func() {
			pdf.SetFont(pdfFont, "B", 8)
			setFill(pdf, headerFill)
			setText(pdf, white)
			for _, h := range t.Header {
				pdf.CellFormat(colW, 7, tr(h), "1", 0, "C", true, 0, "")
			}
			pdf.Ln(-1)
			pdf.SetFont(pdfFont, "", 8)
			setText(pdf, black)
		}
		header()

		_, pageH := pdf.GetPageSize()
		for i, row := range t.Rows {
			if pdf.GetY()+pdfLineHeight > pageH-pdfMargin-5 {
				pdf.AddPage()
				header()
			}
			fill := i%2 == 1
			if fill {
				setFill(pdf, stripeFill)
			}
			for _, v := range row {
				pdf.CellFormat(colW, pdfLineHeight+1, tr(fitText(pdf, tr, v, colW-2)), "1", 0, "L", fill, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// fitText shortens s until it fits width, so cells never overflow.
func fitText(pdf *fpdf.Fpdf, tr func(string) string, s string, width float64) string {
	rs := []rune(s)
	if pdf.GetStringWidth(tr(s)) <= width {
		return s
	}
	for len(rs) > 0 && pdf.GetStringWidth(tr(string(rs)+ellipsis)) > width {
		rs = rs[:len(rs)-1]
	}
	return string(rs) + ellipsis
}

// PDFDetailedRenderer writes a portrait A4 document with one narrative
// block per record.
type PDFDetailedRenderer struct{}

var _ indexer.Renderer = PDFDetailedRenderer{}

func (PDFDetailedRenderer) Format() string      { return FormatPDFDetailed }
func (PDFDetailedRenderer) ContentType() string { return "application/pdf" }
func (PDFDetailedRenderer) Extension() string   { return ".pdf" }

func (PDFDetailedRenderer) Render(w io.Writer, recs []*record.Record, loc *time.Location) error {
	pdf, tr := newPDF("P", "A4", "Registros detalhados")
	const labelW = 55.0

	for _, g := range Narratives(GroupByType(recs), loc) {
		pdf.AddPage()
		pdf.SetFont(pdfFont, "B", 16)
		setText(pdf, headerFill)
		pdf.CellFormat(0, 10, tr(g.Type), "", 1, "L", false, 0, "")
		setText(pdf, black)

		for _, n := range g.Narratives {
			pdf.Ln(3)
			pdf.SetFont(pdfFont, "B", 11)
			setFill(pdf, stripeFill)
			pdf.CellFormat(0, 7, tr(n.Heading), "", 1, "L", true, 0, "")

			for _, e := range n.Entries {
				pdf.SetFont(pdfFont, "B", 9)
				x, y := pdf.GetXY()
				pdf.MultiCell(labelW, pdfLineHeight, tr(e.Label+":"), "", "L", false)
				labelEnd := pdf.GetY()

				pdf.SetXY(x+labelW, y)
				pdf.SetFont(pdfFont, "", 9)
				if e.Wrap || len(e.Lines) > 1 {
					pdf.MultiCell(0, pdfLineHeight, tr(strings.Join(e.Lines, "\n")), "", "L", false)
				} else {
					pdf.CellFormat(0, pdfLineHeight, tr(e.Value), "", 1, "L", false, 0, "")
				}
				if pdf.GetY() < labelEnd {
					pdf.SetY(labelEnd)
				}
			}
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}
