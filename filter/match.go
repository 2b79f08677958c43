package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"

	"github.com/gnemet/gridview/column"
)

// Match reports whether v passes f.
func Match(f Filter, v any) bool {
	if f.Operator == Between {
		if len(f.Values) != 2 {
			return false
		}
		return Compare(f.Column.Type(), v, f.Values[0]) >= 0 && Compare(f.Column.Type(), v, f.Values[1]) <= 0
	}

	negated := f.Operator.Negated()
	for _, want := range f.Values {
		ok := matchOne(f.Column.Type(), f.Operator, v, want)
		if negated && !ok {
			return false
		}
		if !negated && ok {
			return true
		}
	}
	return negated
}

func matchOne(t column.Type, op Operator, v any, want string) bool {
	s := strings.ToLower(Text(v))
	w := strings.ToLower(want)
	switch op {
	case Like:
		return strings.Contains(s, w)
	case LikeLeft:
		return strings.HasSuffix(s, w)
	case LikeRight:
		return strings.HasPrefix(s, w)
	case NotLike:
		return !strings.Contains(s, w)
	case NotLikeLeft:
		return !strings.HasSuffix(s, w)
	case NotLikeRight:
		return !strings.HasPrefix(s, w)
	case Equal, In:
		return Compare(t, v, want) == 0
	case NotEqual, NotIn:
		return Compare(t, v, want) != 0
	case GreaterEqual:
		return Compare(t, v, want) >= 0
	case Greater:
		return Compare(t, v, want) > 0
	case LessEqual:
		return Compare(t, v, want) <= 0
	case Less:
		return Compare(t, v, want) < 0
	}
	return false
}

// Compare orders a and b as values of type t. nil sorts first; values that
// fail numeric or temporal conversion fall back to text order.
func Compare(t column.Type, a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if column.IsNumeric(t) {
		fa, errA := cast.ToFloat64E(a)
		fb, errB := cast.ToFloat64E(b)
		if errA == nil && errB == nil {
			return cmpOrdered(fa, fb)
		}
	}
	if column.IsTemporal(t) {
		layout := t.(column.DateTimeType).SourceLayout
		ta, errA := ToTime(a, layout)
		tb, errB := ToTime(b, layout)
		if errA == nil && errB == nil {
			return ta.Compare(tb)
		}
	}
	if _, ok := t.(column.StringType); !ok {
		return strings.Compare(Text(a), Text(b))
	}
	// untyped columns still order numbers numerically
	fa, errA := cast.ToFloat64E(a)
	fb, errB := cast.ToFloat64E(b)
	if errA == nil && errB == nil && isNumber(a) && isNumber(b) {
		return cmpOrdered(fa, fb)
	}
	return strings.Compare(strings.ToLower(Text(a)), strings.ToLower(Text(b)))
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func cmpOrdered(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Typed drops the values of f that do not convert to the type of a numeric
// or datetime column, so every backend sees the same filter. Text operators
// keep their values. A Between with an invalid bound is dropped whole. ok is
// false when nothing is left.
func Typed(f Filter) (kept Filter, dropped []string, ok bool) {
	t := f.Column.Type()
	if (!column.IsNumeric(t) && !column.IsTemporal(t)) || f.Operator.textual() {
		return f, nil, len(f.Values) > 0
	}

	kept = Filter{Column: f.Column, Operator: f.Operator}
	for _, v := range f.Values {
		if convertible(t, v) {
			kept.Values = append(kept.Values, v)
		} else {
			dropped = append(dropped, v)
		}
	}
	if f.Operator == Between && len(dropped) > 0 {
		return Filter{}, f.Values, false
	}
	return kept, dropped, len(kept.Values) > 0
}

func convertible(t column.Type, v string) bool {
	if column.IsNumeric(t) {
		_, err := cast.ToFloat64E(v)
		return err == nil
	}
	_, err := ToTime(v, t.(column.DateTimeType).SourceLayout)
	return err == nil
}

// Text renders a raw value for text comparison.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// ToTime converts v into a time. Strings are parsed with layout, or with
// dateparse when layout is empty; integers are Unix seconds.
func ToTime(v any, layout string) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case *time.Time:
		if x == nil {
			return time.Time{}, fmt.Errorf("nil time")
		}
		return *x, nil
	case string:
		if layout != "" {
			return time.Parse(layout, x)
		}
		return dateparse.ParseAny(x)
	case []byte:
		return ToTime(string(x), layout)
	case int, int32, int64, uint32, uint64:
		return time.Unix(cast.ToInt64(x), 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
}
