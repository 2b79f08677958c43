// Package prepare turns source rows into display rows: it extracts, replaces,
// formats and translates every cell and resolves action links.
package prepare

import (
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/filter"
	"github.com/gnemet/gridview/i18n"
	"github.com/gnemet/gridview/router"
	"github.com/gnemet/gridview/style"
)

const (
	DefaultDateTimeLayout = "2006-01-02 15:04:05"
	DefaultListSeparator  = ", "
	IdentitySeparator     = "~"
	// RowIdentityParam receives the row identity in row-click URLs when the
	// action names no parameter of its own.
	RowIdentityParam = "rowId"
)

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type Row struct {
	ID      string            `json:"id,omitempty"`
	Values  map[string]string `json:"values"`
	Data    map[string]any    `json:"-"`
	Source  map[string]any    `json:"-"`
	Actions map[string][]Link `json:"actions,omitempty"`
	URL     string            `json:"url,omitempty"`
	Classes []string          `json:"classes,omitempty"`
}

// Preparer is renderer agnostic. Translator, Router, RowClick and Styles
// are optional.
type Preparer struct {
	Columns    []*column.Column
	Translator i18n.Translator
	Router     router.Router
	RowClick   *column.Action
	Styles     []*style.RowStyle
	Logger     *slog.Logger

	printers sync.Map
}

func (p *Preparer) log() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Preparer) Prepare(rows []map[string]any) []Row {
	out := make([]Row, 0, len(rows))
	for _, src := range rows {
		out = append(out, p.PrepareRow(src))
	}
	return out
}

func (p *Preparer) PrepareRow(src map[string]any) Row {
	row := Row{
		Values: make(map[string]string, len(p.Columns)),
		Data:   make(map[string]any, len(p.Columns)),
		Source: src,
	}

	var identity []string
	for _, c := range p.Columns {
		if c.Variant() == column.VariantAction {
			continue
		}
		raw := p.raw(c, src)
		row.Data[c.UniqueID()] = raw
		row.Values[c.UniqueID()] = p.Cell(c, raw)
		if c.IsIdentity() {
			identity = append(identity, filter.Text(raw))
		}
	}
	row.ID = strings.Join(identity, IdentitySeparator)

	if p.Router != nil {
		for _, c := range p.Columns {
			if c.Variant() != column.VariantAction {
				continue
			}
			if row.Actions == nil {
				row.Actions = make(map[string][]Link)
			}
			for _, a := range c.Actions() {
				if link, ok := p.link(a, src, row.ID, ""); ok {
					row.Actions[c.UniqueID()] = append(row.Actions[c.UniqueID()], link)
				}
			}
		}
		if p.RowClick != nil {
			if link, ok := p.link(p.RowClick, src, row.ID, RowIdentityParam); ok {
				row.URL = link.URL
			}
		}
	}

	row.Classes = style.Classes(p.Styles, src)
	return row
}

func (p *Preparer) raw(c *column.Column, src map[string]any) any {
	if c.Variant() == column.VariantComputed {
		if fn := c.Compute(); fn != nil {
			return fn(src)
		}
	}
	v, _ := c.Value(src)
	return v
}

// Cell renders one raw value of c: replacement, type formatting, translation.
func (p *Preparer) Cell(c *column.Column, raw any) string {
	s, replaced := p.replace(c, raw)
	if !replaced {
		s = p.Format(c.Type(), raw)
	}
	if c.Translate() && p.Translator != nil && s != "" {
		s = p.Translator.Translate(s)
	}
	return s
}

func (p *Preparer) replace(c *column.Column, raw any) (string, bool) {
	values, unmatchedEmpty := c.ReplaceValues()
	if values == nil {
		return "", false
	}
	if v, ok := values[filter.Text(raw)]; ok {
		return v, true
	}
	if unmatchedEmpty {
		return "", true
	}
	return "", false
}

// Format renders raw according to t. Values that do not fit t render as text.
func (p *Preparer) Format(t column.Type, raw any) string {
	if raw == nil {
		return ""
	}
	switch tt := t.(type) {
	case column.NumberType:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return filter.Text(raw)
		}
		opts := []number.Option{number.MaxFractionDigits(10)}
		if tt.Decimals >= 0 {
			opts = []number.Option{number.Scale(tt.Decimals)}
		}
		return tt.Prefix + p.printer(tt.Locale).Sprint(number.Decimal(f, opts...)) + tt.Suffix
	case column.DateTimeType:
		tm, err := filter.ToTime(raw, tt.SourceLayout)
		if err != nil {
			return filter.Text(raw)
		}
		if tt.Location != "" {
			if loc, err := time.LoadLocation(tt.Location); err == nil {
				tm = tm.In(loc)
			} else {
				p.log().Warn("unknown time location", "location", tt.Location, "error", err)
			}
		}
		layout := tt.OutputLayout
		if layout == "" {
			layout = DefaultDateTimeLayout
		}
		return tm.Format(layout)
	case column.ListType:
		sep := tt.Separator
		if sep == "" {
			sep = DefaultListSeparator
		}
		rv := reflect.ValueOf(raw)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return filter.Text(raw)
		}
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, filter.Text(rv.Index(i).Interface()))
		}
		return strings.Join(parts, sep)
	}
	return filter.Text(raw)
}

func (p *Preparer) printer(locale string) *message.Printer {
	if locale == "" {
		locale = "en"
	}
	if pr, ok := p.printers.Load(locale); ok {
		return pr.(*message.Printer)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		p.log().Warn("unknown number locale", "locale", locale, "error", err)
		tag = language.English
	}
	pr, _ := p.printers.LoadOrStore(locale, message.NewPrinter(tag))
	return pr.(*message.Printer)
}

func (p *Preparer) link(a *column.Action, src map[string]any, id, defaultIdentityParam string) (Link, bool) {
	params := make(map[string]string, len(a.Params)+1)
	for name, ref := range a.Params {
		params[name] = filter.Text(p.lookup(src, ref))
	}
	identityParam := a.IdentityParam
	if identityParam == "" {
		identityParam = defaultIdentityParam
	}
	if identityParam != "" && id != "" {
		params[identityParam] = id
	}

	url, err := p.Router.URL(a.Route, params)
	if err != nil {
		p.log().Warn("cannot build action url", "route", a.Route, "error", err)
		return Link{}, false
	}
	label := a.Label
	if p.Translator != nil && label != "" {
		label = p.Translator.Translate(label)
	}
	return Link{Label: label, URL: url}, true
}

// lookup resolves a column unique id, then a source key or dotted path.
func (p *Preparer) lookup(src map[string]any, ref string) any {
	for _, c := range p.Columns {
		if c.UniqueID() == ref {
			return p.raw(c, src)
		}
	}
	if v, ok := src[ref]; ok {
		return v
	}
	v, _ := column.Path(src, ref)
	return v
}
