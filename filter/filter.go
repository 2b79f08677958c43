// Package filter holds sort conditions and column filters, parses filter
// expressions typed by users and evaluates both against in-memory rows.
package filter

import (
	"strings"

	"github.com/gnemet/gridview/column"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps anything but a case-insensitive "desc" to Asc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

// Sort is one sort condition. The first of a sequence is the primary sort.
type Sort struct {
	Column    *column.Column
	Direction Direction
}

// Operator is a filter comparison.
type Operator string

const (
	Like         Operator = "like"
	LikeLeft     Operator = "like_left"  // value ends with
	LikeRight    Operator = "like_right" // value starts with
	NotLike      Operator = "not_like"
	NotLikeLeft  Operator = "not_like_left"
	NotLikeRight Operator = "not_like_right"
	Equal        Operator = "eq"
	NotEqual     Operator = "neq"
	GreaterEqual Operator = "gte"
	Greater      Operator = "gt"
	LessEqual    Operator = "lte"
	Less         Operator = "lt"
	In           Operator = "in"
	NotIn        Operator = "not_in"
	Between      Operator = "between"
)

// Negated reports whether multiple values are combined with AND instead of OR.
func (o Operator) Negated() bool {
	switch o {
	case NotLike, NotLikeLeft, NotLikeRight, NotEqual, NotIn:
		return true
	}
	return false
}

func (o Operator) textual() bool {
	switch o {
	case Like, LikeLeft, LikeRight, NotLike, NotLikeLeft, NotLikeRight:
		return true
	}
	return false
}

// Filter restricts a column. Multiple values are OR-ed for positive
// operators and AND-ed for negated ones; Between carries [from, to].
type Filter struct {
	Column   *column.Column
	Operator Operator
	Values   []string
}

// Merge folds filters sharing column and operator into one.
func Merge(filters []Filter) []Filter {
	type key struct {
		id string
		op Operator
	}
	idx := make(map[key]int)
	var out []Filter
	for _, f := range filters {
		k := key{f.Column.UniqueID(), f.Operator}
		if i, ok := idx[k]; ok && f.Operator != Between {
			out[i].Values = append(out[i].Values, f.Values...)
			continue
		}
		idx[k] = len(out)
		out = append(out, Filter{Column: f.Column, Operator: f.Operator, Values: append([]string(nil), f.Values...)})
	}
	return out
}

// Parse reads a user filter expression for col:
//
//	~abc  ~*abc  ~abc*  !~abc   like / ends with / starts with / not like
//	=abc  !=abc  >=1  >1  <=1  <1
//	=(a,b)  !=(a,b)            in / not in
//	1 <> 5                     between
//
// Without an operator, numeric and datetime columns use Equal and others
// Like. Comma separated values yield several values. Empty input yields ok
// false.
func Parse(col *column.Column, raw string) (Filter, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Filter{}, false
	}

	if from, to, ok := strings.Cut(s, "<>"); ok {
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if from == "" || to == "" {
			return Filter{}, false
		}
		return Filter{Column: col, Operator: Between, Values: []string{from, to}}, true
	}

	var op Operator
	switch {
	case strings.HasPrefix(s, "!=(") && strings.HasSuffix(s, ")"):
		op, s = NotIn, s[3:len(s)-1]
	case strings.HasPrefix(s, "=(") && strings.HasSuffix(s, ")"):
		op, s = In, s[2:len(s)-1]
	case strings.HasPrefix(s, "!~"):
		op, s = NotLike, s[2:]
	case strings.HasPrefix(s, "~"):
		op, s = Like, s[1:]
	case strings.HasPrefix(s, "!="):
		op, s = NotEqual, s[2:]
	case strings.HasPrefix(s, ">="):
		op, s = GreaterEqual, s[2:]
	case strings.HasPrefix(s, "<="):
		op, s = LessEqual, s[2:]
	case strings.HasPrefix(s, ">"):
		op, s = Greater, s[1:]
	case strings.HasPrefix(s, "<"):
		op, s = Less, s[1:]
	case strings.HasPrefix(s, "="):
		op, s = Equal, s[1:]
	default:
		op = Like
		if column.IsNumeric(col.Type()) || column.IsTemporal(col.Type()) {
			op = Equal
		}
	}

	s = strings.TrimSpace(s)
	if op == Like || op == NotLike {
		op, s = wildcard(op, s)
	}

	var values []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Filter{}, false
	}
	return Filter{Column: col, Operator: op, Values: values}, true
}

func wildcard(op Operator, s string) (Operator, string) {
	lead := strings.HasPrefix(s, "*")
	trail := strings.HasSuffix(s, "*") && len(s) > 1
	s = strings.Trim(s, "*")
	switch {
	case lead && !trail:
		if op == NotLike {
			return NotLikeLeft, s
		}
		return LikeLeft, s
	case trail && !lead:
		if op == NotLike {
			return NotLikeRight, s
		}
		return LikeRight, s
	}
	return op, s
}
