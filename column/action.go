package column

// Action links a row to a route. Params maps route parameter names to the
// unique ids of the columns holding their values.
type Action struct {
	Label  string            `json:"label" mapstructure:"label"`
	Route  string            `json:"route" mapstructure:"route"`
	Params map[string]string `json:"params,omitempty" mapstructure:"params"`
	// IdentityParam, when set, receives the row identity.
	IdentityParam string `json:"identityParam,omitempty" mapstructure:"identityParam"`
}

// NewRouteAction returns an action for route with the given parameter mapping.
func NewRouteAction(label, route string, params map[string]string) *Action {
	return &Action{Label: label, Route: route, Params: params}
}
