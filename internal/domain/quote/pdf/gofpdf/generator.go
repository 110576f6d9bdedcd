package gofpdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"window-counter/backend/internal/domain/quote"
)

type Generator struct {
	company string
	now     func() time.Time
}

func New(company string) *Generator {
	return &Generator{company: company, now: time.Now}
}

func (g *Generator) Generate(q quote.Quote) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Window Quote", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Window Quote")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, tr(q.Name))
	pdf.Ln(6)
	if !q.SavedAt.IsZero() {
		pdf.Cell(0, 6, "Saved "+q.SavedAt.Format("02 Jan 2006 15:04"))
		pdf.Ln(6)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(100, 7, "Window type")
	pdf.Cell(20, 7, "Count")
	pdf.CellFormat(30, 7, "Unit price", "", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Line total", "", 0, "R", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range q.LineItems {
		pdf.Cell(100, 6, tr(trim(it.Name, 55)))
		pdf.Cell(20, 6, fmt.Sprintf("%d", it.Count))
		pdf.CellFormat(30, 6, it.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, it.LineTotal().StringFixed(2), "", 0, "R", false, 0, "")
		pdf.Ln(6)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(180, 7, "Total: "+q.TotalCost.StringFixed(2), "", 0, "R", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 9)
	if g.company != "" {
		pdf.Cell(0, 5, tr(g.company))
		pdf.Ln(5)
	}
	pdf.Cell(0, 5, "Generated "+g.now().Format(time.RFC3339))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("quote pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "..."
}
