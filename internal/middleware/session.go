package middleware

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-console/internal/service"
	"github.com/iliyamo/admin-console/internal/session"
)

// sessionKey is where the request's session lives in the echo context.
const sessionKey = "session"

// Bearer returns the token of an "Authorization: Bearer ..." header, or "".
func Bearer(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

// Session builds a session for every request from its bearer token and
// settles it with Restore before the handler runs.  A missing or invalid
// token leaves the session Unauthenticated; it never rejects the request.
func Session(auth *service.AuthService, publicLevel string, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := session.New(auth.Bind(Bearer(c)),
				session.WithPublicLevel(publicLevel),
				session.WithLogger(logger),
			)
			s.Restore(c.Request().Context())
			c.Set(sessionKey, s)
			return next(c)
		}
	}
}

// SessionFrom returns the session stored by Session, or nil when the
// middleware did not run for this route.
func SessionFrom(c echo.Context) *session.Session {
	s, _ := c.Get(sessionKey).(*session.Session)
	return s
}
