package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-console/internal/menutree"
	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/queue"
)

type menuReq struct {
	Name          string  `json:"name"`
	Icon          string  `json:"icon"`
	Route         string  `json:"route"`
	ExternalURL   string  `json:"externalUrl"`
	ParentID      *string `json:"parentId"`
	ScreenID      *string `json:"screenId"`
	RequiresAuth  *bool   `json:"requiresAuth"`
	AccessLevelID *string `json:"accessLevelId"`
	Order         int     `json:"order"`
	IsActive      *bool   `json:"isActive"`
}

// applyMenu validates req and copies it onto m.  Omitted booleans keep the
// current value of m.
func (h *AdminHandler) applyMenu(ctx context.Context, req menuReq, m *model.Menu) error {
	m.Name = strings.TrimSpace(req.Name)
	m.Icon = strings.TrimSpace(req.Icon)
	m.Route = strings.TrimSpace(req.Route)
	m.ExternalURL = strings.TrimSpace(req.ExternalURL)
	m.ParentID = optional(req.ParentID)
	m.ScreenID = optional(req.ScreenID)
	m.AccessLevelID = optional(req.AccessLevelID)
	m.Order = req.Order
	m.RequiresAuth = orDefault(req.RequiresAuth, m.RequiresAuth)
	m.IsActive = orDefault(req.IsActive, m.IsActive)

	switch {
	case m.Name == "":
		return invalid("name required")
	case m.Icon != "" && menutree.SanitizeIcon(m.Icon) == "":
		return invalid("unknown icon %q", m.Icon)
	case m.Route != "" && m.ExternalURL != "":
		return invalid("route and externalUrl are mutually exclusive")
	case m.Route != "" && !strings.HasPrefix(m.Route, "/"):
		return invalid("route must start with /")
	case m.ExternalURL != "" && !absoluteURL(m.ExternalURL):
		return invalid("externalUrl must be an absolute http(s) URL")
	}

	if m.ScreenID != nil {
		if _, err := h.Store.Screens.Get(ctx, *m.ScreenID); err != nil {
			return exists("screenId", err)
		}
	}
	if m.AccessLevelID != nil {
		if err := h.checkAccessLevel(ctx, *m.AccessLevelID); err != nil {
			return err
		}
	}
	if m.ParentID == nil {
		return nil
	}
	menus, err := h.Store.Menus.List(ctx)
	if err != nil {
		return err
	}
	parents := make(map[string]string, len(menus))
	found := false
	for _, o := range menus {
		if o.ParentID != nil {
			parents[o.ID] = *o.ParentID
		}
		found = found || o.ID == *m.ParentID
	}
	if !found {
		return invalid("parentId does not exist")
	}
	if menutree.WouldCycle(parents, m.ID, *m.ParentID) {
		return invalid("parentId would create a cycle")
	}
	return nil
}

// ListMenus returns every menu, active or not, as a flat ordered list.
func (h *AdminHandler) ListMenus(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	menus, err := h.Store.Menus.List(ctx)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, menus)
}

// MenuTree returns the unfiltered forest of every menu.
func (h *AdminHandler) MenuTree(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	menus, err := h.Store.Menus.List(ctx)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, menutree.Build(menus))
}

func (h *AdminHandler) GetMenu(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Store.Menus.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) CreateMenu(c echo.Context) error {
	var req menuReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m := model.Menu{RequiresAuth: true, IsActive: true}
	if err := h.applyMenu(ctx, req, &m); err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Store.Menus.Create(ctx, &m); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionCreate, "menus", m.ID)
	return c.JSON(http.StatusCreated, m)
}

func (h *AdminHandler) UpdateMenu(c echo.Context) error {
	var req menuReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Store.Menus.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.applyMenu(ctx, req, &m); err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Store.Menus.Update(ctx, &m); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionUpdate, "menus", m.ID)
	return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) DeleteMenu(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Store.Menus.Delete(ctx, id); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionDelete, "menus", id)
	return c.NoContent(http.StatusNoContent)
}
