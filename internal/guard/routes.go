package guard

import "strings"

// Route is one page of the console.
type Route struct {
	Pattern       string
	Public        bool
	RequiresAdmin bool
	Redirect      string
}

// Routes lists every page the console serves.  ":id" matches one path
// segment.
var Routes = []Route{
	{Pattern: "/login", Public: true},
	{Pattern: "/", Redirect: DefaultPath},
	{Pattern: "/dashboard"},

	{Pattern: "/analytics/queries"},
	{Pattern: "/analytics/queries/new"},
	{Pattern: "/analytics/queries/:id/edit"},
	{Pattern: "/analytics/queries/:id/run"},

	{Pattern: "/powerbi/reports"},
	{Pattern: "/powerbi/reports/new"},
	{Pattern: "/powerbi/reports/:id/edit"},
	{Pattern: "/powerbi/reports/:id/view"},

	{Pattern: "/admin/dashboard", RequiresAdmin: true},
	{Pattern: "/admin/users", RequiresAdmin: true},
	{Pattern: "/admin/groups", RequiresAdmin: true},
	{Pattern: "/admin/access-levels", RequiresAdmin: true},
	{Pattern: "/admin/menus", RequiresAdmin: true},
	{Pattern: "/admin/screens", RequiresAdmin: true},
}

// Match finds the route serving path.  Query strings and fragments are
// ignored, as is a trailing slash.
func Match(path string) (Route, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	for _, r := range Routes {
		if matches(r.Pattern, path) {
			return r, true
		}
	}
	return Route{}, false
}

func matches(pattern, path string) bool {
	if pattern == path {
		return true
	}
	ps := strings.Split(pattern, "/")
	xs := strings.Split(path, "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
