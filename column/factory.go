package column

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	"github.com/gnemet/gridview/errs"
)

const opCreate = "column.Create"

// Keys whose value may be a scalar or a positional argument list.
var specialKeys = map[string]bool{
	"filterSelectOptions": true,
	"rendererParameter":   true,
	"replaceValues":       true,
	"select":              true,
	"sortDefault":         true,
}

type setter func(f *Factory, args []any) (Option, error)

var setters = map[string]setter{
	"label": func(_ *Factory, a []any) (Option, error) {
		s, err := cast.ToStringE(a[0])
		return WithLabel(s), err
	},
	"id": func(_ *Factory, a []any) (Option, error) {
		s, err := cast.ToStringE(a[0])
		return WithUniqueID(s), err
	},
	"position": func(_ *Factory, a []any) (Option, error) {
		n, err := cast.ToIntE(a[0])
		return WithPosition(n), err
	},
	"type": func(_ *Factory, a []any) (Option, error) {
		t, err := parseType(a[0])
		return WithType(t), err
	},
	"hidden":     boolSetter(Hidden),
	"sortable":   boolSetter(Sortable),
	"filterable": boolSetter(Filterable),
	"identity":   boolSetter(Identity),
	"translate":  boolSetter(Translated),
	"width": func(_ *Factory, a []any) (Option, error) {
		w, err := cast.ToFloat64E(a[0])
		return WithWidth(w), err
	},
	"filterDefaultValue": func(_ *Factory, a []any) (Option, error) {
		s, err := cast.ToStringE(a[0])
		return WithFilterDefaultValue(s), err
	},
	"replaceValues": func(_ *Factory, a []any) (Option, error) {
		values, err := stringMap(a[0])
		if err != nil {
			return nil, err
		}
		unmatchedEmpty := true
		if len(a) > 1 {
			if unmatchedEmpty, err = cast.ToBoolE(a[1]); err != nil {
				return nil, err
			}
		}
		return WithReplaceValues(values, unmatchedEmpty), nil
	},
	"sortDefault": func(_ *Factory, a []any) (Option, error) {
		priority, err := cast.ToIntE(a[0])
		if err != nil {
			return nil, err
		}
		dir := "asc"
		if len(a) > 1 {
			if dir, err = cast.ToStringE(a[1]); err != nil {
				return nil, err
			}
		}
		return WithSortDefault(priority, dir), nil
	},
	"filterSelectOptions": func(_ *Factory, a []any) (Option, error) {
		opts, err := selectOptions(a[0])
		if err != nil {
			return nil, err
		}
		noSelect := true
		if len(a) > 1 {
			if noSelect, err = cast.ToBoolE(a[1]); err != nil {
				return nil, err
			}
		}
		return WithFilterSelectOptions(opts, noSelect), nil
	},
	"rendererParameter": func(_ *Factory, a []any) (Option, error) {
		if len(a) < 2 {
			return nil, fmt.Errorf("expects name and value, got %d argument(s)", len(a))
		}
		name, err := cast.ToStringE(a[0])
		if err != nil {
			return nil, err
		}
		renderer := "html"
		if len(a) > 2 {
			if renderer, err = cast.ToStringE(a[2]); err != nil {
				return nil, err
			}
		}
		return WithRendererParameter(name, a[1], renderer), nil
	},
	"compute": func(f *Factory, a []any) (Option, error) {
		name, err := cast.ToStringE(a[0])
		if err != nil {
			return nil, err
		}
		fn, ok := f.Computations[name]
		if !ok {
			return nil, fmt.Errorf("unknown computation %q", name)
		}
		return WithCompute(fn), nil
	},
	"actions": func(_ *Factory, a []any) (Option, error) {
		var actions []*Action
		if err := mapstructure.Decode(a[0], &actions); err != nil {
			return nil, err
		}
		return WithActions(actions...), nil
	},
}

func init() {
	setters["uniqueId"] = setters["id"]
}

func boolSetter(opt func(bool) Option) setter {
	return func(_ *Factory, a []any) (Option, error) {
		b, err := cast.ToBoolE(a[0])
		return opt(b), err
	}
}

// Factory builds columns from declarative maps.
type Factory struct {
	// Computations resolves the "compute" key of computed columns.
	Computations map[string]ComputeFunc
	Logger       *slog.Logger
}

// Definition is a decoded column config, ready to build.
type Definition struct {
	Variant Variant
	Field   string
	Table   string
	Options []Option
	// Ignored lists config keys without a matching setter.
	Ignored []string
}

// Create builds a column from cfg. See Decode for the accepted keys.
func (f *Factory) Create(cfg map[string]any) (*Column, error) {
	def, err := f.Decode(cfg)
	if err != nil {
		return nil, err
	}
	if len(def.Ignored) > 0 {
		f.logger().Debug("ignoring unknown column config keys", "keys", def.Ignored)
	}
	return def.Build(), nil
}

// Decode resolves the column variant from "colType" (default "select") and
// converts every other known key into an Option. Keys without a setter land
// in Definition.Ignored.
func (f *Factory) Decode(cfg map[string]any) (*Definition, error) {
	def := &Definition{}

	colType := "select"
	if v, ok := cfg["colType"]; ok {
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, errs.Configuration(opCreate, "colType: %v", err)
		}
		colType = s
	}
	variant, ok := variantByName(colType)
	if !ok {
		return nil, errs.Configuration(opCreate, "column type %q not found", colType)
	}
	def.Variant = variant

	if variant == VariantSelect {
		field, table, err := parseSelect(cfg["select"])
		if err != nil {
			return nil, errs.Configuration(opCreate, "select: %v", err)
		}
		if field == "" {
			return nil, errs.Configuration(opCreate, "option select[column] must be defined for select columns")
		}
		def.Field, def.Table = field, table
	}
	if variant == VariantComputed {
		if _, ok := cfg["id"]; !ok {
			if _, ok := cfg["uniqueId"]; !ok {
				return nil, errs.Configuration(opCreate, "computed columns need an id")
			}
		}
	}

	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "colType" || key == "select" {
			continue
		}
		set, ok := setters[key]
		if !ok {
			def.Ignored = append(def.Ignored, key)
			continue
		}
		args := []any{cfg[key]}
		if specialKeys[key] {
			args = argList(cfg[key])
		}
		if len(args) == 0 {
			return nil, errs.Configuration(opCreate, "%s: missing value", key)
		}
		opt, err := set(f, args)
		if err != nil {
			return nil, errs.Configuration(opCreate, "%s: %v", key, err)
		}
		def.Options = append(def.Options, opt)
	}
	return def, nil
}

// Build instantiates the column.
func (d *Definition) Build() *Column {
	switch d.Variant {
	case VariantComputed:
		return NewComputed("", nil, d.Options...)
	case VariantAction:
		return NewAction("", nil, d.Options...)
	default:
		return NewSelect(d.Field, d.Table, d.Options...)
	}
}

func (f *Factory) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

func variantByName(name string) (Variant, bool) {
	switch strings.ToLower(name) {
	case "select", "":
		return VariantSelect, true
	case "computed", "externaldata":
		return VariantComputed, true
	case "action":
		return VariantAction, true
	}
	return 0, false
}

// argList expands slices into positional arguments and wraps scalars.
func argList(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func parseSelect(v any) (field, table string, err error) {
	switch s := v.(type) {
	case nil:
		return "", "", nil
	case string:
		return s, "", nil
	}
	if m, ok := asMap(v); ok {
		field, err = cast.ToStringE(m["column"])
		if err != nil {
			return "", "", err
		}
		table, err = cast.ToStringE(m["table"])
		return field, table, err
	}
	args := argList(v)
	if len(args) == 0 {
		return "", "", nil
	}
	if field, err = cast.ToStringE(args[0]); err != nil {
		return "", "", err
	}
	if len(args) > 1 {
		table, err = cast.ToStringE(args[1])
	}
	return field, table, err
}

func parseType(v any) (Type, error) {
	name, params := "", map[string]any{}
	if s, ok := v.(string); ok {
		name = s
	} else if m, ok := asMap(v); ok {
		params = m
		name = cast.ToString(m["name"])
	} else {
		return nil, fmt.Errorf("unsupported type definition %T", v)
	}

	switch strings.ToLower(name) {
	case "string", "":
		return StringType{}, nil
	case "number":
		decimals := -1
		if d, ok := params["decimals"]; ok {
			n, err := cast.ToIntE(d)
			if err != nil {
				return nil, err
			}
			decimals = n
		}
		return NumberType{
			Locale:   cast.ToString(params["locale"]),
			Decimals: decimals,
			Prefix:   cast.ToString(params["prefix"]),
			Suffix:   cast.ToString(params["suffix"]),
		}, nil
	case "datetime":
		return DateTimeType{
			SourceLayout: cast.ToString(params["sourceLayout"]),
			OutputLayout: cast.ToString(params["outputLayout"]),
			Location:     cast.ToString(params["location"]),
		}, nil
	case "list":
		sep := cast.ToString(params["separator"])
		if sep == "" {
			sep = ", "
		}
		return ListType{Separator: sep}, nil
	}
	return nil, fmt.Errorf("unknown value type %q", name)
}

func selectOptions(v any) ([]SelectOption, error) {
	if m, ok := asMap(v); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]SelectOption, 0, len(m))
		for _, k := range keys {
			out = append(out, SelectOption{Value: k, Label: cast.ToString(m[k])})
		}
		return out, nil
	}
	var out []SelectOption
	if err := mapstructure.WeakDecode(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func stringMap(v any) (map[string]string, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, fmt.Errorf("expected a map, got %T", v)
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		s, err := cast.ToStringE(val)
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	return out, nil
}

// asMap accepts any map type and stringifies its keys; YAML and literal Go
// configs produce map[string]any, map[any]any and map[int]string alike.
func asMap(v any) (map[string]any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
	}
	return out, true
}
