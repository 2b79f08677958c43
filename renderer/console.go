package renderer

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cast"
)

// Console renders a bordered text table for terminals. A column's "width"
// parameter for this renderer truncates its cells.
type Console struct {
	live
}

func NewConsole() *Console { return &Console{} }

func (*Console) Name() string { return NameConsole }

func (*Console) Render(_ context.Context, view *View) (*Response, error) {
	cols := view.DataColumns()
	header := view.Header(cols)
	records := view.Records(cols)

	widths := make([]int, len(cols))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, rec := range records {
		for i, cell := range rec {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i, c := range cols {
		if limit, ok := view.rendererParam(c, NameConsole, "width"); ok {
			if m := cast.ToInt(limit); m > 0 && widths[i] > m {
				widths[i] = m
			}
		}
	}

	var buf bytes.Buffer
	if view.Title != "" {
		fmt.Fprintln(&buf, view.T(view.Title))
	}
	border := consoleBorder(widths)
	buf.WriteString(border)
	writeConsoleRow(&buf, header, widths)
	buf.WriteString(border)
	for _, rec := range records {
		writeConsoleRow(&buf, rec, widths)
	}
	buf.WriteString(border)

	pages := view.Pages()
	fmt.Fprintf(&buf, "%s %d/%d, %d %s\n",
		view.T("Page"), pages.Current, pages.PageCount, pages.TotalItemCount, view.T("items"))

	return &Response{ContentType: "text/plain; charset=utf-8", Body: buf.Bytes()}, nil
}

func consoleBorder(widths []int) string {
	var sb strings.Builder
	sb.WriteString("+")
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteString("+")
	}
	sb.WriteString("\n")
	return sb.String()
}

func writeConsoleRow(buf *bytes.Buffer, cells []string, widths []int) {
	buf.WriteString("|")
	for i, w := range widths {
		var cell string
		if i < len(cells) {
			cell = runewidth.Truncate(cells[i], w, "…")
		}
		buf.WriteString(" ")
		buf.WriteString(runewidth.FillRight(cell, w))
		buf.WriteString(" |")
	}
	buf.WriteString("\n")
}
