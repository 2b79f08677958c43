package renderer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/spf13/cast"
)

// PDF exports the cached view as a landscape table. A column's "width"
// parameter for this renderer sets its share of the page width.
type PDF struct {
	replay
	Orientation string
	PageSize    string
	FontSize    float64
}

func NewPDF() *PDF {
	return &PDF{Orientation: "L", PageSize: "A4", FontSize: 9}
}

func (*PDF) Name() string { return NamePDF }

func (p *PDF) Render(_ context.Context, view *View) (*Response, error) {
	doc := fpdf.New(p.Orientation, "mm", p.PageSize, "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	lineHeight := p.FontSize * 0.6

	cols := view.DataColumns()
	header := view.Header(cols)
	widths := p.widths(doc, view)
	title := view.T(view.Title)

	doc.SetHeaderFunc(func() {
		if title != "" {
			doc.SetFont("Helvetica", "B", p.FontSize+4)
			doc.CellFormat(0, lineHeight*2, tr(title), "", 1, "L", false, 0, "")
		}
		doc.SetFont("Helvetica", "B", p.FontSize)
		doc.SetFillColor(221, 221, 221)
		for i, h := range header {
			doc.CellFormat(widths[i], lineHeight, tr(h), "1", 0, "L", true, 0, "")
		}
		doc.Ln(-1)
		doc.SetFont("Helvetica", "", p.FontSize)
	})
	doc.SetFooterFunc(func() {
		doc.SetY(-10)
		doc.SetFont("Helvetica", "I", p.FontSize-1)
		doc.CellFormat(0, lineHeight, fmt.Sprintf("%d", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	doc.AddPage()
	for _, rec := range view.Records(cols) {
		for i, v := range rec {
			doc.CellFormat(widths[i], lineHeight, tr(v), "1", 0, "L", false, 0, "")
		}
		doc.Ln(-1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return &Response{
		ContentType: "application/pdf",
		Filename:    view.filename("pdf"),
		Body:        buf.Bytes(),
	}, nil
}

// widths splits the printable width across the data columns, weighted by
// their "width" parameter (1 when unset).
func (p *PDF) widths(doc *fpdf.Fpdf, view *View) []float64 {
	cols := view.DataColumns()
	weights := make([]float64, len(cols))
	var total float64
	for i, c := range cols {
		weights[i] = 1
		if w, ok := view.rendererParam(c, NamePDF, "width"); ok {
			if f := cast.ToFloat64(w); f > 0 {
				weights[i] = f
			}
		}
		total += weights[i]
	}

	pageWidth, _ := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	printable := pageWidth - left - right
	for i := range weights {
		weights[i] = printable * weights[i] / total
	}
	return weights
}
