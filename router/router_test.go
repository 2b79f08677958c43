package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatterns_URL(t *testing.T) {
	r := NewPatterns("/app/", map[string]string{"users.edit": "/users/{id}/edit"})
	r.Add("search", "/search?x=1")

	tests := map[string]struct {
		route   string
		params  map[string]string
		want    string
		wantErr bool
	}{
		"named route":       {route: "users.edit", params: map[string]string{"id": "7"}, want: "/app/users/7/edit"},
		"escaped":           {route: "users.edit", params: map[string]string{"id": "a b/c"}, want: "/app/users/a%20b%2Fc/edit"},
		"extra to query":    {route: "users.edit", params: map[string]string{"id": "7", "tab": "x", "b": "y"}, want: "/app/users/7/edit?b=y&tab=x"},
		"existing query":    {route: "search", params: map[string]string{"q": "ann"}, want: "/app/search?x=1&q=ann"},
		"pattern as route":  {route: "/orders/{no}", params: map[string]string{"no": "12"}, want: "/app/orders/12"},
		"missing parameter": {route: "users.edit", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := r.URL(tc.route, tc.params)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
