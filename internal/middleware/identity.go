package middleware

import "github.com/labstack/echo/v4"

// userID returns the id of the authenticated user of the request, or
// "guest" when there is none.  Used to build per-user rate-limit and cache
// keys.
func userID(c echo.Context) string {
	if s := SessionFrom(c); s != nil {
		if u, ok := s.User(); ok && u.ID != "" {
			return u.ID
		}
	}
	return "guest"
}
