// Package config loads grid options from YAML with environment expansion
// and validates option and column documents against embedded JSON schemas.
package config

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/gnemet/gridview/cache"
	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/errs"
	"github.com/gnemet/gridview/paginator"
	"github.com/gnemet/gridview/renderer"
)

//go:embed schemas/*.json
var schemaFS embed.FS

type Options struct {
	Server   Server     `yaml:"server"`
	Database []Database `yaml:"database"`

	Settings              Settings            `yaml:"settings"`
	GeneralParameterNames renderer.ParamNames `yaml:"generalParameterNames"`
	Cache                 cache.Config        `yaml:"cache"`
	Logging               Logging             `yaml:"logging"`

	// Grids holds declarative grid definitions by grid id.
	Grids map[string]GridDefinition `yaml:"grids"`
}

type Server struct {
	Port string `yaml:"port"`
}

type Database struct {
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Schema   string `yaml:"schema"`
	Default  bool   `yaml:"default"`
}

// ConnString builds a lib/pq connection string.
func (d Database) ConnString() string {
	s := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Database)
	if d.Schema != "" {
		s += fmt.Sprintf(" search_path=%s,public", d.Schema)
	}
	return s
}

type Settings struct {
	Default struct {
		Renderer RendererDefaults `yaml:"renderer"`
	} `yaml:"default"`
	Export            Export    `yaml:"export"`
	ItemsPerPage      int       `yaml:"itemsPerPage"`
	UserFilterEnabled bool      `yaml:"userFilterEnabled"`
	Paginator         Paginator `yaml:"paginator"`
}

// RendererDefaults name the renderer per request context.
type RendererDefaults struct {
	HTTP    string `yaml:"http"`
	Console string `yaml:"console"`
}

type Export struct {
	Enabled bool     `yaml:"enabled"`
	Formats []string `yaml:"formats"`
}

type Paginator struct {
	Style     string `yaml:"style"`
	PageRange int    `yaml:"pageRange"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type GridDefinition struct {
	Title        string           `yaml:"title"`
	Query        string           `yaml:"query"`
	ItemsPerPage int              `yaml:"itemsPerPage"`
	Exports      []string         `yaml:"exports"`
	Columns      []map[string]any `yaml:"columns"`
}

// Defaults returns the options used for every key a config file omits.
func Defaults() *Options {
	o := &Options{
		Server:                Server{Port: "8080"},
		GeneralParameterNames: renderer.DefaultParamNames(),
		Cache:                 cache.Config{Adapter: cache.AdapterMemory},
		Logging:               Logging{Level: "info", Format: "text"},
	}
	o.Settings.Default.Renderer = RendererDefaults{HTTP: renderer.NameHTML, Console: renderer.NameConsole}
	o.Settings.Export = Export{
		Enabled: true,
		Formats: []string{renderer.NamePrint, renderer.NamePDF, renderer.NameCSV, renderer.NameExcel},
	}
	o.Settings.ItemsPerPage = paginator.DefaultItemCountPerPage
	o.Settings.UserFilterEnabled = true
	o.Settings.Paginator = Paginator{Style: paginator.Sliding.String(), PageRange: paginator.DefaultPageRange}
	return o
}

// Load reads path over Defaults. A .env file in the working directory is
// loaded first and ${VAR} references are expanded.
func Load(path string) (*Options, error) {
	_ = godotenv.Load() // optional

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML document over Defaults after validating it.
func Parse(data []byte) (*Options, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	var doc any
	if err := yaml.Unmarshal(expanded, &doc); err != nil {
		return nil, errs.Configuration("config.Parse", "%v", err)
	}
	if doc != nil {
		if err := ValidateOptions(doc); err != nil {
			return nil, err
		}
	}

	o := Defaults()
	if err := yaml.Unmarshal(expanded, o); err != nil {
		return nil, errs.Configuration("config.Parse", "%v", err)
	}
	o.GeneralParameterNames = o.GeneralParameterNames.WithDefaults()
	return o, nil
}

// DefaultDatabase returns the database marked default, else the first one.
func (o *Options) DefaultDatabase() (Database, bool) {
	for _, d := range o.Database {
		if d.Default {
			return d, true
		}
	}
	if len(o.Database) > 0 {
		return o.Database[0], true
	}
	return Database{}, false
}

// PaginatorOptions turns the paginator settings into paginator options.
func (o *Options) PaginatorOptions() ([]paginator.Option, error) {
	var opts []paginator.Option
	if o.Settings.Paginator.Style != "" {
		style, err := paginator.ParseStyle(o.Settings.Paginator.Style)
		if err != nil {
			return nil, err
		}
		opts = append(opts, paginator.WithStyle(style))
	}
	if o.Settings.Paginator.PageRange > 0 {
		opts = append(opts, paginator.WithPageRange(o.Settings.Paginator.PageRange))
	}
	return opts, nil
}

// ValidateOptions checks a decoded options document.
func ValidateOptions(doc any) error {
	return validate("options.schema.json", doc)
}

// ValidateColumn checks a declarative column definition.
func ValidateColumn(cfg map[string]any) error {
	return validate("column.schema.json", cfg)
}

// Build validates and builds the columns of a grid definition.
func (g GridDefinition) Build(f *column.Factory) ([]*column.Column, error) {
	cols := make([]*column.Column, 0, len(g.Columns))
	for i, cfg := range g.Columns {
		if err := ValidateColumn(cfg); err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		c, err := f.Create(cfg)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// Schema returns an embedded schema document by file name.
func Schema(name string) ([]byte, error) {
	return schemaFS.ReadFile("schemas/" + name)
}

func validate(schema string, doc any) error {
	const op = "config.Validate"
	raw, err := Schema(schema)
	if err != nil {
		return errs.Configuration(op, "%v", err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(raw), gojsonschema.NewGoLoader(normalize(doc)))
	if err != nil {
		return errs.Configuration(op, "%v", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return errs.Configuration(op, "%s", strings.Join(msgs, "; "))
}

// normalize stringifies map keys so YAML documents with non-string keys
// can be encoded as JSON.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}
