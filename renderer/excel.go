package renderer

import (
	"context"
	"fmt"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// Excel exports the cached view as an xlsx workbook. A column's "width"
// parameter for this renderer sets its width in characters.
type Excel struct {
	replay
}

func NewExcel() *Excel { return &Excel{} }

func (*Excel) Name() string { return NameExcel }

func (e *Excel) Render(_ context.Context, view *View) (*Response, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(view.T(view.Title))
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	cols := view.DataColumns()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, label := range view.Header(cols) {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, label); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, header); err != nil {
			return nil, fmt.Errorf("style header: %w", err)
		}
		if w, ok := view.rendererParam(cols[i], NameExcel, "width"); ok {
			name, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetColWidth(sheet, name, name, cast.ToFloat64(w)); err != nil {
				return nil, fmt.Errorf("set column width: %w", err)
			}
		}
	}

	for r, rec := range view.Records(cols) {
		for i, v := range rec {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", r+1, err)
			}
		}
	}

	if len(cols) > 0 {
		if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return nil, fmt.Errorf("freeze header: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &Response{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Filename:    view.filename("xlsx"),
		Body:        buf.Bytes(),
	}, nil
}

// sheetName trims s to a valid worksheet name.
func sheetName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
	}
	if len(out) > maxSheetName {
		out = out[:maxSheetName]
	}
	if len(out) == 0 {
		return "Grid"
	}
	return string(out)
}
