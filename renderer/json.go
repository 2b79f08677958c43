package renderer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gnemet/gridview/prepare"
)

// JSONPage is the body of a JSON response, shaped for AJAX grids.
type JSONPage struct {
	Page    int           `json:"page"`
	Total   int           `json:"total"`
	Records int           `json:"records"`
	Columns []JSONColumn  `json:"columns"`
	Rows    []prepare.Row `json:"rows"`
}

type JSONColumn struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Sortable   bool   `json:"sortable"`
	Filterable bool   `json:"filterable"`
	Sort       string `json:"sort,omitempty"`
}

// JSON renders the current page for in-page requests.
type JSON struct {
	live
}

func NewJSON() *JSON { return &JSON{} }

func (*JSON) Name() string { return NameJSON }

func (*JSON) Render(_ context.Context, view *View) (*Response, error) {
	pages := view.Pages()
	page := JSONPage{
		Page:    pages.Current,
		Total:   pages.PageCount,
		Records: pages.TotalItemCount,
		Rows:    view.Rows,
	}
	if page.Rows == nil {
		page.Rows = []prepare.Row{}
	}
	if view.Paginator == nil {
		page.Records = len(view.Rows)
	}
	for _, c := range view.Visible() {
		page.Columns = append(page.Columns, JSONColumn{
			ID:         c.UniqueID(),
			Label:      view.Label(c),
			Sortable:   c.IsSortable(),
			Filterable: c.IsFilterable(),
			Sort:       string(view.SortDirection(c)),
		})
	}

	body, err := json.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("encode json page: %w", err)
	}
	return &Response{ContentType: "application/json", Body: body, Payload: page}, nil
}
