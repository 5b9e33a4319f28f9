package navigation

import (
	"fmt"
	"net/url"
	"strings"
)

// Well-known locations
const (
	PathLanding    = "/"
	PathLogin      = "/login"
	PathRegister   = "/register"
	PathFirstAdmin = "/first-admin"
	PathProjects   = "/projects"
	PathAdminUsers = "/admin/users"

	// RedirectParam carries the originally requested location through login
	RedirectParam = "redirect"
)

// Meta are the access flags declared by a route
type Meta struct {
	RequiresAuth bool
	AdminOnly    bool
	// PublicOnly pages are hidden from authenticated users
	PublicOnly bool
}

// Route maps a path pattern to a page. Segments starting with ':' are parameters.
type Route struct {
	Name    string
	Pattern string
	Meta    Meta
}

// DefaultRoutes is the trialdesk page table
var DefaultRoutes = []Route{
	{Name: "landing", Pattern: PathLanding},
	{Name: "login", Pattern: PathLogin, Meta: Meta{PublicOnly: true}},
	{Name: "register", Pattern: PathRegister, Meta: Meta{PublicOnly: true}},
	{Name: "invitation", Pattern: "/invitations/:token", Meta: Meta{PublicOnly: true}},
	{Name: "first-admin", Pattern: PathFirstAdmin},
	{Name: "projects", Pattern: PathProjects, Meta: Meta{RequiresAuth: true}},
	{Name: "project-detail", Pattern: "/projects/:projectId", Meta: Meta{RequiresAuth: true}},
	{Name: "trial-results", Pattern: "/projects/:id/trials/:trialId", Meta: Meta{RequiresAuth: true}},
	{Name: "admin-users", Pattern: PathAdminUsers, Meta: Meta{RequiresAuth: true, AdminOnly: true}},
}

const notFoundRoute = "not-found"

// Match is a path resolved against the route table
type Match struct {
	Route  Route
	Path   string
	Params map[string]string
	Query  url.Values
}

// FullPath is the path with its query string
func (m Match) FullPath() string {
	if len(m.Query) == 0 {
		return m.Path
	}
	return m.Path + "?" + encodeQuery(m.Query)
}

// Param returns a path parameter or ""
func (m Match) Param(name string) string {
	return m.Params[name]
}

// NotFound reports whether no route matched
func (m Match) NotFound() bool {
	return m.Route.Name == notFoundRoute
}

// Table resolves paths to routes
type Table struct {
	routes []Route
}

func NewTable(routes ...Route) *Table {
	if len(routes) == 0 {
		routes = DefaultRoutes
	}
	return &Table{routes: routes}
}

// Resolve matches a location such as "/projects/42?tab=trials". Unknown paths
// resolve to the not-found page, which declares no restrictions.
func (t *Table) Resolve(location string) (Match, error) {
	u, err := url.Parse(location)
	if err != nil {
		return Match{}, fmt.Errorf("invalid location %q: %w", location, err)
	}

	path := cleanPath(u.Path)
	query := u.Query()

	for _, r := range t.routes {
		if params, ok := matchPattern(r.Pattern, path); ok {
			return Match{Route: r, Path: path, Params: params, Query: query}, nil
		}
	}

	return Match{
		Route: Route{Name: notFoundRoute, Pattern: "/*"},
		Path:  path,
		Query: query,
	}, nil
}

func cleanPath(p string) string {
	if p == "" {
		return PathLanding
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func matchPattern(pattern, path string) (map[string]string, bool) {
	if pattern == path {
		return map[string]string{}, true
	}

	pp := strings.Split(strings.Trim(pattern, "/"), "/")
	sp := strings.Split(strings.Trim(path, "/"), "/")
	if len(pp) != len(sp) {
		return nil, false
	}

	params := make(map[string]string)
	for i := range pp {
		if name, ok := strings.CutPrefix(pp[i], ":"); ok {
			if sp[i] == "" {
				return nil, false
			}
			v, err := url.PathUnescape(sp[i])
			if err != nil {
				return nil, false
			}
			params[name] = v
			continue
		}
		if pp[i] != sp[i] {
			return nil, false
		}
	}
	return params, true
}

// LoginLocation is the login page carrying dest as the return-to parameter
func LoginLocation(dest string) string {
	q := url.Values{}
	q.Set(RedirectParam, dest)
	return PathLogin + "?" + encodeQuery(q)
}

// encodeQuery leaves '/' readable; it is legal in a query component.
func encodeQuery(q url.Values) string {
	return strings.ReplaceAll(q.Encode(), "%2F", "/")
}
