// Package i18n translates grid labels and cell values.
package i18n

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

type Translator interface {
	Translate(msg string) string
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(string) string

func (f TranslatorFunc) Translate(msg string) string { return f(msg) }

// Messages maps a language tag to message keys and their translation.
type Messages map[string]map[string]string

// Catalog translates through an x/text catalog for one language. Unknown
// messages are returned unchanged.
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
	known   map[string]bool
}

func NewCatalog(lang string, msgs Messages) (*Catalog, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := catalog.NewBuilder(catalog.Fallback(tag))
	known := make(map[string]bool)

	langs := make([]string, 0, len(msgs))
	for l := range msgs {
		langs = append(langs, l)
	}
	sort.Strings(langs)

	for _, l := range langs {
		lt, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse language %q: %w", l, err)
		}
		for key, msg := range msgs[l] {
			if err := b.SetString(lt, key, literal(msg)); err != nil {
				return nil, fmt.Errorf("set %s message %q: %w", l, key, err)
			}
			known[key] = true
		}
	}

	return &Catalog{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b)),
		known:   known,
	}, nil
}

// LoadCatalog reads YAML messages ({lang: {key: message}}).
func LoadCatalog(lang string, r io.Reader) (*Catalog, error) {
	var msgs Messages
	if err := yaml.NewDecoder(r).Decode(&msgs); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return NewCatalog(lang, msgs)
}

func (c *Catalog) Language() language.Tag { return c.tag }

// Translate returns the message for msg. Neither msg nor its translation is
// treated as a format string.
func (c *Catalog) Translate(msg string) string {
	if !c.known[msg] {
		return msg
	}
	return c.printer.Sprintf(message.Key(msg, literal(msg)))
}

func literal(s string) string { return strings.ReplaceAll(s, "%", "%%") }

// Humanize turns a field name such as "first_name" into "First Name".
func Humanize(field string) string {
	s := strings.NewReplacer("_", " ", ".", " ", "-", " ").Replace(field)
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}
