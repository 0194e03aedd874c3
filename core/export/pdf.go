package export

import (
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"
)

const (
	pdfMargin     = 10.0
	pdfLineHeight = 6.0
	pdfFontSize   = 8.0
	pdfMaxCol     = 60.0
	pdfMinCol     = 18.0
)

// PDF exports landscape A4 reports.
type PDF struct{}

func (PDF) ContentType() string { return "application/pdf" }
func (PDF) Extension() string   { return "pdf" }

func (PDF) Export(w io.Writer, table Table) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	widths := columnWidths(pdf, table)
	header := func() {
		pdf.SetFont("Helvetica", "B", pdfFontSize)
		pdf.SetFillColor(230, 230, 230)
		for i, col := range table.Columns {
			pdf.CellFormat(widths[i], pdfLineHeight, tr(fit(pdf, col, widths[i])), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", pdfFontSize)
	}
	pdf.SetHeaderFunc(func() {
		if table.Title != "" {
			pdf.SetFont("Helvetica", "B", 12)
			pdf.CellFormat(0, 10, tr(table.Title), "", 1, "L", false, 0, "")
		}
		if len(table.Columns) > 0 {
			header()
		}
	})
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin)
		pdf.SetFont("Helvetica", "I", pdfFontSize)
		pdf.CellFormat(0, pdfLineHeight, "{nb}", "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	for _, row := range table.Rows {
		for i := range table.Columns {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			pdf.CellFormat(widths[i], pdfLineHeight, tr(fit(pdf, val, widths[i])), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "writing pdf")
	}
	return nil
}

// columnWidths sizes columns after their content, shrinking them to fit the page.
func columnWidths(pdf *gofpdf.Fpdf, table Table) []float64 {
	pdf.SetFont("Helvetica", "", pdfFontSize)
	widths := make([]float64, len(table.Columns))
	var total float64
	for i, col := range table.Columns {
		w := pdf.GetStringWidth(col) + 4
		for _, row := range table.Rows {
			if i < len(row) {
				if rw := pdf.GetStringWidth(row[i]) + 4; rw > w {
					w = rw
				}
			}
		}
		if w > pdfMaxCol {
			w = pdfMaxCol
		}
		if w < pdfMinCol {
			w = pdfMinCol
		}
		widths[i] = w
		total += w
	}

	pageW, _ := pdf.GetPageSize()
	if avail := pageW - 2*pdfMargin; total > avail {
		for i := range widths {
			widths[i] *= avail / total
		}
	}
	return widths
}

// fit truncates s so it fits in a cell of width w.
func fit(pdf *gofpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s)+2 <= w {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...")+2 > w {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
