package column

import (
	"reflect"
	"strconv"
	"strings"
)

// Value extracts the raw value of c from a source row: first by unique id,
// then by field name, then by walking a dotted field through nested maps and
// slices. Computed and action columns resolve only by unique id.
func (c *Column) Value(row map[string]any) (any, bool) {
	if v, ok := row[c.id]; ok {
		return v, true
	}
	if c.field == "" {
		return nil, false
	}
	if v, ok := row[c.field]; ok {
		return v, true
	}
	if !strings.Contains(c.field, ".") {
		return nil, false
	}
	return Path(row, c.field)
}

// Path walks a dotted path. Numeric segments index slices.
func Path(row map[string]any, path string) (any, bool) {
	var cur any = row
	for _, seg := range strings.Split(path, ".") {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(cur any, seg string) (any, bool) {
	switch x := cur.(type) {
	case map[string]any:
		v, ok := x[seg]
		return v, ok
	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(x) {
			return nil, false
		}
		return x[i], true
	}

	rv := reflect.ValueOf(cur)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}
