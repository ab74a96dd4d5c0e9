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

// ----- access levels -----

type accessLevelReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ParentID    *string `json:"parentId"`
}

// applyAccessLevel validates req against the current level tree; a parent
// must exist and must not be the level itself or one of its descendants.
func (h *AdminHandler) applyAccessLevel(ctx context.Context, req accessLevelReq, a *model.AccessLevel) error {
	a.Name = strings.TrimSpace(req.Name)
	a.Description = strings.TrimSpace(req.Description)
	a.ParentID = optional(req.ParentID)
	if a.Name == "" {
		return invalid("name required")
	}
	if a.ParentID == nil {
		return nil
	}
	levels, err := h.Store.AccessLevels.List(ctx)
	if err != nil {
		return err
	}
	parents := make(map[string]string, len(levels))
	found := false
	for _, l := range levels {
		if l.ParentID != nil {
			parents[l.ID] = *l.ParentID
		}
		found = found || l.ID == *a.ParentID
	}
	if !found {
		return invalid("parentId does not exist")
	}
	if menutree.WouldCycle(parents, a.ID, *a.ParentID) {
		return invalid("parentId would create a cycle")
	}
	return nil
}

func (h *AdminHandler) ListAccessLevels(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	levels, err := h.Store.AccessLevels.List(ctx)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, levels)
}

func (h *AdminHandler) GetAccessLevel(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.Store.AccessLevels.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AdminHandler) CreateAccessLevel(c echo.Context) error {
	var req accessLevelReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	var a model.AccessLevel
	if err := h.applyAccessLevel(ctx, req, &a); err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Store.AccessLevels.Create(ctx, &a); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionCreate, "access_levels", a.ID)
	return c.JSON(http.StatusCreated, a)
}

func (h *AdminHandler) UpdateAccessLevel(c echo.Context) error {
	var req accessLevelReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Store.AccessLevels.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.applyAccessLevel(ctx, req, &a); err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Store.AccessLevels.Update(ctx, &a); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionUpdate, "access_levels", a.ID)
	return c.JSON(http.StatusOK, a)
}

func (h *AdminHandler) DeleteAccessLevel(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Store.AccessLevels.Delete(ctx, id); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionDelete, "access_levels", id)
	return c.NoContent(http.StatusNoContent)
}

// ----- permissions -----

type permissionReq struct {
	AccessLevelID string        `json:"accessLevelId"`
	ResourceType  string        `json:"resourceType"`
	ResourceID    string        `json:"resourceId"`
	Actions       model.Actions `json:"actions"`
}

func (h *AdminHandler) applyPermission(ctx context.Context, req permissionReq, p *model.Permission) error {
	p.AccessLevelID = strings.TrimSpace(req.AccessLevelID)
	p.ResourceType = strings.ToLower(strings.TrimSpace(req.ResourceType))
	p.ResourceID = strings.TrimSpace(req.ResourceID)
	p.Actions = req.Actions
	if p.AccessLevelID == "" || p.ResourceID == "" {
		return invalid("accessLevelId and resourceId required")
	}
	if !model.ValidResourceType(p.ResourceType) {
		return invalid("resourceType must be screen or menu")
	}
	if err := h.checkAccessLevel(ctx, p.AccessLevelID); err != nil {
		return err
	}
	var err error
	if p.ResourceType == model.ResourceScreen {
		_, err = h.Store.Screens.Get(ctx, p.ResourceID)
	} else {
		_, err = h.Store.Menus.Get(ctx, p.ResourceID)
	}
	return exists("resourceId", err)
}

// ListPermissions lists every permission, or those of ?accessLevelId=.
func (h *AdminHandler) ListPermissions(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	var (
		perms []model.Permission
		err   error
	)
	if level := strings.TrimSpace(c.QueryParam("accessLevelId")); level != "" {
		perms, err = h.Store.Permissions.ListByAccessLevel(ctx, level)
	} else {
		perms, err = h.Store.Permissions.List(ctx)
	}
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, perms)
}

func (h *AdminHandler) GetPermission(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Store.Permissions.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) CreatePermission(c echo.Context) error {
	var req permissionReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	var p model.Permission
	if err := h.applyPermission(ctx, req, &p); err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Store.Permissions.Create(ctx, &p); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionCreate, "permissions", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminHandler) UpdatePermission(c echo.Context) error {
	var req permissionReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Store.Permissions.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.applyPermission(ctx, req, &p); err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Store.Permissions.Update(ctx, &p); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionUpdate, "permissions", p.ID)
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) DeletePermission(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Store.Permissions.Delete(ctx, id); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionDelete, "permissions", id)
	return c.NoContent(http.StatusNoContent)
}
