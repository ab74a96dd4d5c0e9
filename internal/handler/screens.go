package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-console/internal/menutree"
	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/queue"
	"github.com/iliyamo/admin-console/internal/repository"
)

type screenReq struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Content       string  `json:"content"`
	ContentType   string  `json:"contentType"`
	AccessLevelID *string `json:"accessLevelId"`
}

func (h *AdminHandler) applyScreen(ctx context.Context, req screenReq, s *model.Screen) error {
	s.Name = strings.TrimSpace(req.Name)
	s.Description = strings.TrimSpace(req.Description)
	s.Content = req.Content
	s.ContentType = strings.ToLower(strings.TrimSpace(req.ContentType))
	s.AccessLevelID = optional(req.AccessLevelID)
	if s.Name == "" {
		return invalid("name required")
	}
	if !model.ValidContentType(s.ContentType) {
		return invalid("contentType must be html, component or iframe")
	}
	if s.ContentType == model.ContentIframe && !absoluteURL(strings.TrimSpace(s.Content)) {
		return invalid("iframe content must be an absolute http(s) URL")
	}
	if s.AccessLevelID != nil {
		return h.checkAccessLevel(ctx, *s.AccessLevelID)
	}
	return nil
}

func (h *AdminHandler) ListScreens(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	screens, err := h.Store.Screens.List(ctx)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, screens)
}

func (h *AdminHandler) GetScreen(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Store.Screens.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *AdminHandler) CreateScreen(c echo.Context) error {
	var req screenReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	var s model.Screen
	if err := h.applyScreen(ctx, req, &s); err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Store.Screens.Create(ctx, &s); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionCreate, "screens", s.ID)
	return c.JSON(http.StatusCreated, s)
}

func (h *AdminHandler) UpdateScreen(c echo.Context) error {
	var req screenReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Store.Screens.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.applyScreen(ctx, req, &s); err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Store.Screens.Update(ctx, &s); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionUpdate, "screens", s.ID)
	return c.JSON(http.StatusOK, s)
}

func (h *AdminHandler) DeleteScreen(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Store.Screens.Delete(ctx, id); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionDelete, "screens", id)
	return c.NoContent(http.StatusNoContent)
}

// ScreenHandler serves screen content to signed-in users.
type ScreenHandler struct {
	Screens     repository.ScreenRepository
	PublicLevel string
	Logger      *slog.Logger
}

func NewScreenHandler(screens repository.ScreenRepository, publicLevel string, logger *slog.Logger) *ScreenHandler {
	return &ScreenHandler{Screens: screens, PublicLevel: publicLevel, Logger: logger.With(slog.String("component", "handler.screens"))}
}

// ViewScreen returns a screen when the caller could see a menu carrying the
// screen's access level.  Hidden screens answer 404 so their existence is
// not disclosed.
func (h *ScreenHandler) ViewScreen(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Screens.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	u, _ := actor(c)
	if !u.IsAdmin() && !menutree.Visible(&model.Menu{AccessLevelID: s.AccessLevelID}, u.AccessLevelID, h.PublicLevel) {
		return fail(c, h.Logger, repository.ErrNotFound)
	}
	return c.JSON(http.StatusOK, s)
}
