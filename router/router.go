// Package router generates the URLs behind row actions.
package router

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

type Router interface {
	URL(route string, params map[string]string) (string, error)
}

// Patterns resolves named routes such as "users.edit" to patterns like
// "/users/{id}/edit". Parameters without a placeholder go to the query
// string. A route with no registered name is used as the pattern itself.
type Patterns struct {
	base   string
	routes map[string]string
}

func NewPatterns(base string, routes map[string]string) *Patterns {
	if routes == nil {
		routes = make(map[string]string)
	}
	return &Patterns{base: strings.TrimRight(base, "/"), routes: routes}
}

func (p *Patterns) Add(name, pattern string) {
	p.routes[name] = pattern
}

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

func (p *Patterns) URL(route string, params map[string]string) (string, error) {
	pattern, ok := p.routes[route]
	if !ok {
		pattern = route
	}

	used := make(map[string]bool)
	var missing []string
	path := placeholder.ReplaceAllStringFunc(pattern, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		used[name] = true
		return url.PathEscape(v)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("route %q: missing parameters %s", route, strings.Join(missing, ", "))
	}

	query := url.Values{}
	keys := make([]string, 0, len(params))
	for k := range params {
		if !used[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		query.Set(k, params[k])
	}

	if p.base != "" && strings.HasPrefix(path, "/") {
		path = p.base + path
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path += sep + query.Encode()
	}
	return path, nil
}
