package renderer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("grid").Funcs(template.FuncMap{
	"join": strings.Join,
}).ParseFS(templateFS, "templates/*.html"))

// xhr is implemented by requests that can tell in-page requests apart.
type xhr interface {
	IsXMLHTTPRequest() bool
}

// HTML renders an interactive table page. In-page requests receive only the
// table rows.
type HTML struct {
	live
	tmpl *template.Template
}

func NewHTML() *HTML {
	return &HTML{tmpl: templates}
}

// NewHTMLTemplate renders with t, which must define "grid" and "rows".
func NewHTMLTemplate(t *template.Template) *HTML {
	return &HTML{tmpl: t}
}

func (*HTML) Name() string { return NameHTML }

func (h *HTML) Render(_ context.Context, view *View) (*Response, error) {
	name, fragment := "grid", false
	if r, ok := view.Request.(xhr); ok && r.IsXMLHTTPRequest() {
		name, fragment = "rows", true
	}
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, view); err != nil {
		return nil, fmt.Errorf("render %s template: %w", name, err)
	}
	return &Response{
		ContentType: "text/html; charset=utf-8",
		Body:        buf.Bytes(),
		Fragment:    fragment,
	}, nil
}

// Print renders a printable page of the whole cached view.
type Print struct {
	replay
	tmpl *template.Template
}

func NewPrint() *Print {
	return &Print{tmpl: templates}
}

func (*Print) Name() string { return NamePrint }

func (p *Print) Render(_ context.Context, view *View) (*Response, error) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "print", view); err != nil {
		return nil, fmt.Errorf("render print template: %w", err)
	}
	return &Response{ContentType: "text/html; charset=utf-8", Body: buf.Bytes()}, nil
}
