package renderer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
)

// CSV exports the cached view as comma separated values.
type CSV struct {
	replay
	// Comma is the field delimiter, ',' when zero.
	Comma rune
}

func NewCSV() *CSV { return &CSV{Comma: ','} }

func (*CSV) Name() string { return NameCSV }

func (c *CSV) Render(_ context.Context, view *View) (*Response, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if c.Comma != 0 {
		w.Comma = c.Comma
	}
	cols := view.DataColumns()
	if err := w.Write(view.Header(cols)); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(view.Records(cols)); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return &Response{
		ContentType: "text/csv; charset=utf-8",
		Filename:    view.filename("csv"),
		Body:        buf.Bytes(),
	}, nil
}
