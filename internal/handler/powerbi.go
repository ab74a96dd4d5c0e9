package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/powerbi"
	"github.com/iliyamo/admin-console/internal/queue"
	"github.com/iliyamo/admin-console/internal/repository"
)

// PowerBIHandler manages registered reports and hands out embed info.
type PowerBIHandler struct {
	Reports repository.ReportRepository
	Embed   powerbi.EmbedProvider
	Audit   queue.Auditor
	Logger  *slog.Logger
}

func NewPowerBIHandler(reports repository.ReportRepository, embed powerbi.EmbedProvider, audit queue.Auditor, logger *slog.Logger) *PowerBIHandler {
	if audit == nil {
		audit = queue.Nop{}
	}
	return &PowerBIHandler{Reports: reports, Embed: embed, Audit: audit, Logger: logger.With(slog.String("component", "handler.powerbi"))}
}

type reportReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ReportID    string `json:"reportId"`
	WorkspaceID string `json:"workspaceId"`
	EmbedURL    string `json:"embedUrl"`
}

func applyReport(req reportReq, r *model.PowerBIReport) error {
	r.Name = strings.TrimSpace(req.Name)
	r.Description = strings.TrimSpace(req.Description)
	r.ReportID = strings.TrimSpace(req.ReportID)
	r.WorkspaceID = strings.TrimSpace(req.WorkspaceID)
	r.EmbedURL = strings.TrimSpace(req.EmbedURL)
	if r.Name == "" || r.ReportID == "" || r.WorkspaceID == "" {
		return invalid("name, reportId and workspaceId required")
	}
	if r.EmbedURL != "" && !absoluteURL(r.EmbedURL) {
		return invalid("embedUrl must be an absolute http(s) URL")
	}
	return nil
}

// ListReports returns registered reports, newest first.
func (h *PowerBIHandler) ListReports(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	rs, err := h.Reports.List(ctx)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *PowerBIHandler) GetReport(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Reports.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *PowerBIHandler) CreateReport(c echo.Context) error {
	var req reportReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	var r model.PowerBIReport
	if err := applyReport(req, &r); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Reports.Create(ctx, &r); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionCreate, "powerbi_reports", r.ID)
	return c.JSON(http.StatusCreated, r)
}

func (h *PowerBIHandler) UpdateReport(c echo.Context) error {
	var req reportReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	r, err := h.Reports.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if err := applyReport(req, &r); err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Reports.Update(ctx, &r); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionUpdate, "powerbi_reports", r.ID)
	return c.JSON(http.StatusOK, r)
}

func (h *PowerBIHandler) DeleteReport(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Reports.Delete(ctx, id); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionDelete, "powerbi_reports", id)
	return c.NoContent(http.StatusNoContent)
}

// EmbedReport resolves embed info for a registered report.  Provider
// failures answer 502.
func (h *PowerBIHandler) EmbedReport(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Reports.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	info, err := h.Embed.GetEmbedInfo(ctx, powerbi.Ref{ReportID: r.ReportID, WorkspaceID: r.WorkspaceID, EmbedURL: r.EmbedURL})
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, info)
}
