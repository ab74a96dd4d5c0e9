package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-console/internal/guard"
)

// RequireSession rejects requests whose session is not authenticated.
// It must run after Session.
func RequireSession() echo.MiddlewareFunc { return guardWith(false) }

// RequireAdmin additionally rejects non-admin users with 403.
func RequireAdmin() echo.MiddlewareFunc { return guardWith(true) }

func guardWith(admin bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := SessionFrom(c)
			if s == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			res := guard.Check(s, admin, c.Request().URL.Path)
			switch res.Decision {
			case guard.Allow:
				return next(c)
			case guard.RedirectToDefault:
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			case guard.Pending:
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session busy"})
			default:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
		}
	}
}
