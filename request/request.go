// Package request adapts incoming HTTP and console invocations to the
// parameter view a grid reads from.
package request

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// SessionCookie names the cookie carrying the grid session id.
const SessionCookie = "gridsession"

type Request interface {
	// Query returns the first value of a parameter, or "".
	Query(name string) string
	// Values returns every value of a parameter.
	Values(name string) []string
	IsConsole() bool
	SessionID() string
}

type HTTP struct {
	r       *http.Request
	values  url.Values
	session string
}

// FromHTTP reads query and form parameters of r. The session id comes from
// the session cookie; when absent a new id is minted and, with w set, sent
// back as a cookie.
func FromHTTP(w http.ResponseWriter, r *http.Request) *HTTP {
	values := r.URL.Query()
	if err := r.ParseForm(); err == nil {
		values = r.Form
	}

	h := &HTTP{r: r, values: values}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		h.session = c.Value
		return h
	}

	h.session = uuid.NewString()
	if w != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    h.session,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return h
}

func (h *HTTP) Query(name string) string    { return h.values.Get(name) }
func (h *HTTP) Values(name string) []string { return h.values[name] }
func (h *HTTP) IsConsole() bool             { return false }
func (h *HTTP) SessionID() string           { return h.session }
func (h *HTTP) Request() *http.Request      { return h.r }
func (h *HTTP) Header(name string) string   { return h.r.Header.Get(name) }
func (h *HTTP) IsXMLHTTPRequest() bool      { return h.r.Header.Get("X-Requested-With") == "XMLHttpRequest" }

type Console struct {
	values  url.Values
	session string
}

// NewConsole builds a console request from parameters.
func NewConsole(values url.Values, sessionID string) *Console {
	if values == nil {
		values = url.Values{}
	}
	if sessionID == "" {
		sessionID = "console"
	}
	return &Console{values: values, session: sessionID}
}

// ParseArgs reads "name=value" arguments. Arguments without "=" are skipped.
func ParseArgs(args []string) url.Values {
	values := url.Values{}
	for _, a := range args {
		name, value, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			continue
		}
		values.Add(name, value)
	}
	return values
}

func (c *Console) Query(name string) string    { return c.values.Get(name) }
func (c *Console) Values(name string) []string { return c.values[name] }
func (c *Console) IsConsole() bool             { return true }
func (c *Console) SessionID() string           { return c.session }
