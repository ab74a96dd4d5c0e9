package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-console/internal/analytics"
	"github.com/iliyamo/admin-console/internal/middleware"
	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/powerbi"
	"github.com/iliyamo/admin-console/internal/queue"
	"github.com/iliyamo/admin-console/internal/repository"
	"github.com/iliyamo/admin-console/internal/session"
)

// requestTimeout bounds the data calls of one request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// validationError is a malformed or inconsistent request body.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// bind decodes the request body into v.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return invalid("invalid body")
	}
	return nil
}

// fail renders err as {"error": "..."} with the status its kind maps to.
// Unexpected errors are logged and reported as 500 without detail.
func fail(c echo.Context, logger *slog.Logger, err error) error {
	var (
		ve *validationError
		qe *analytics.QueryError
		ee *powerbi.EmbedError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.msg})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicts with existing data"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, session.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.As(err, &qe):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": qe.Message})
	case errors.As(err, &ee):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": ee.Message})
	}
	logger.Error("request failed",
		slog.String("method", c.Request().Method),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// actor returns the authenticated user of the request.
func actor(c echo.Context) (model.User, bool) {
	if s := middleware.SessionFrom(c); s != nil {
		return s.User()
	}
	return model.User{}, false
}

// audit records action on resource/id on behalf of the request's user.
func audit(c echo.Context, a queue.Auditor, action, resource, id string) {
	ev := queue.AuditEvent{Action: action, Resource: resource, ResourceID: id, RemoteIP: c.RealIP()}
	if u, ok := actor(c); ok {
		ev.ActorID, ev.ActorEmail = u.ID, u.Email
	}
	a.Record(c.Request().Context(), ev)
}

// optional turns a blank string pointer into nil.
func optional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

// absoluteURL reports whether raw is an absolute http(s) URL.
func absoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func orDefault(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
