package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-console/internal/analytics"
	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/queue"
	"github.com/iliyamo/admin-console/internal/repository"
)

// maxPageSize caps ?size= on result pages.
const maxPageSize = 500

// AnalyticsHandler manages saved queries and runs SQL.
type AnalyticsHandler struct {
	Queries repository.QueryRepository
	Exec    analytics.Executor
	Audit   queue.Auditor
	Logger  *slog.Logger
}

func NewAnalyticsHandler(queries repository.QueryRepository, exec analytics.Executor, audit queue.Auditor, logger *slog.Logger) *AnalyticsHandler {
	if audit == nil {
		audit = queue.Nop{}
	}
	return &AnalyticsHandler{Queries: queries, Exec: exec, Audit: audit, Logger: logger.With(slog.String("component", "handler.analytics"))}
}

type queryReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SQLQuery    string `json:"sqlQuery"`
}

func applyQuery(req queryReq, q *model.AnalyticsQuery) error {
	q.Name = strings.TrimSpace(req.Name)
	q.Description = strings.TrimSpace(req.Description)
	q.SQLQuery = strings.TrimSpace(req.SQLQuery)
	if q.Name == "" || q.SQLQuery == "" {
		return invalid("name and sqlQuery required")
	}
	return nil
}

// ListQueries returns saved queries, newest first.
func (h *AnalyticsHandler) ListQueries(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	qs, err := h.Queries.List(ctx)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, qs)
}

func (h *AnalyticsHandler) GetQuery(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	q, err := h.Queries.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *AnalyticsHandler) CreateQuery(c echo.Context) error {
	var req queryReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	var q model.AnalyticsQuery
	if err := applyQuery(req, &q); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Queries.Create(ctx, &q); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionCreate, "analytics_queries", q.ID)
	return c.JSON(http.StatusCreated, q)
}

func (h *AnalyticsHandler) UpdateQuery(c echo.Context) error {
	var req queryReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	q, err := h.Queries.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if err := applyQuery(req, &q); err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Queries.Update(ctx, &q); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionUpdate, "analytics_queries", q.ID)
	return c.JSON(http.StatusOK, q)
}

func (h *AnalyticsHandler) DeleteQuery(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Queries.Delete(ctx, id); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionDelete, "analytics_queries", id)
	return c.NoContent(http.StatusNoContent)
}

// RunQuery executes a saved query.  ?filter=, ?page= and ?size= select
// the returned page.
func (h *AnalyticsHandler) RunQuery(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	q, err := h.Queries.Get(ctx, c.Param("id"))
	cancel()
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return h.execute(c, q.SQLQuery, q.ID)
}

type executeReq struct {
	SQL string `json:"sql"`
}

// Execute runs an ad-hoc statement from the body ({"sql": "..."}).
func (h *AnalyticsHandler) Execute(c echo.Context) error {
	var req executeReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	if strings.TrimSpace(req.SQL) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sql required"})
	}
	return h.execute(c, req.SQL, "")
}

// execute runs sql under the executor's own deadline rather than the
// request timeout used for data calls.
func (h *AnalyticsHandler) execute(c echo.Context, sql, queryID string) error {
	page, size, err := pageParams(c)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	res, err := h.Exec.Execute(c.Request().Context(), sql)
	audit(c, h.Audit, queue.ActionExecute, "analytics_queries", queryID)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, res.Page(c.QueryParam("filter"), page, size))
}

func pageParams(c echo.Context) (page, size int, err error) {
	page, size = 1, analytics.DefaultPageSize
	if v := c.QueryParam("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil || page < 1 {
			return 0, 0, invalid("page must be a positive integer")
		}
	}
	if v := c.QueryParam("size"); v != "" {
		if size, err = strconv.Atoi(v); err != nil || size < 1 {
			return 0, 0, invalid("size must be a positive integer")
		}
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size, nil
}
