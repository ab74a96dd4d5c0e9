package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/queue"
	"github.com/iliyamo/admin-console/internal/repository"
	"github.com/iliyamo/admin-console/internal/utils"
)

// AdminHandler manages users, groups, access levels, menus, screens and
// permissions.  Every route it serves requires the admin role.
type AdminHandler struct {
	Store      *repository.Store
	Audit      queue.Auditor
	BcryptCost int
	Logger     *slog.Logger
}

// NewAdminHandler constructs an AdminHandler and panics if the store is nil.
func NewAdminHandler(store *repository.Store, audit queue.Auditor, bcryptCost int, logger *slog.Logger) *AdminHandler {
	if store == nil {
		panic("nil store passed to NewAdminHandler")
	}
	if audit == nil {
		audit = queue.Nop{}
	}
	return &AdminHandler{Store: store, Audit: audit, BcryptCost: bcryptCost, Logger: logger.With(slog.String("component", "handler.admin"))}
}

// exists turns ErrNotFound on a referenced row into a validation error
// naming field.
func exists(field string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("%s does not exist", field)
	}
	return err
}

func (h *AdminHandler) checkAccessLevel(ctx context.Context, id string) error {
	_, err := h.Store.AccessLevels.Get(ctx, id)
	return exists("accessLevelId", err)
}

// ----- users -----

type userReq struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	GroupID       string `json:"groupId"`
	AccessLevelID string `json:"accessLevelId"`
	Status        string `json:"status"`
}

// applyUser validates req and copies it onto u.  Empty role and status keep the
// current value (or the defaults on create).
func (h *AdminHandler) applyUser(ctx context.Context, req userReq, u *model.User) error {
	u.Name = strings.TrimSpace(req.Name)
	u.Email = repository.NormalizeEmail(req.Email)
	if u.Name == "" || u.Email == "" {
		return invalid("name and email required")
	}
	if !strings.Contains(u.Email, "@") {
		return invalid("invalid email")
	}
	if r := strings.ToLower(strings.TrimSpace(req.Role)); r != "" {
		u.Role = r
	}
	if st := strings.ToLower(strings.TrimSpace(req.Status)); st != "" {
		u.Status = st
	}
	if !model.ValidRole(u.Role) {
		return invalid("role must be admin or user")
	}
	if !model.ValidStatus(u.Status) {
		return invalid("status must be active or blocked")
	}
	u.GroupID = strings.TrimSpace(req.GroupID)
	u.AccessLevelID = strings.TrimSpace(req.AccessLevelID)
	if u.GroupID != "" {
		g, err := h.Store.Groups.Get(ctx, u.GroupID)
		if err != nil {
			return exists("groupId", err)
		}
		if u.AccessLevelID == "" {
			u.AccessLevelID = g.AccessLevelID
		}
	}
	if u.AccessLevelID == "" {
		return invalid("accessLevelId required")
	}
	return h.checkAccessLevel(ctx, u.AccessLevelID)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Store.Users.List(ctx)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) GetUser(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Store.Users.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req userReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u := model.User{Role: model.RoleUser, Status: model.StatusActive}
	if err := h.applyUser(ctx, req, &u); err != nil {
		return fail(c, h.Logger, err)
	}
	hash, err := h.hash(req.Password)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Store.Users.Create(ctx, &u, hash); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionCreate, "users", u.ID)
	return c.JSON(http.StatusCreated, u)
}

// UpdateUser replaces the editable fields of a user.  A non-empty password
// also resets the password.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	var req userReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Store.Users.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.applyUser(ctx, req, &u); err != nil {
		return fail(c, h.Logger, err)
	}
	if me, ok := actor(c); ok && me.ID == u.ID && (!u.IsAdmin() || u.Status != model.StatusActive) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot demote or block your own account"})
	}
	var hash string
	if req.Password != "" {
		if hash, err = h.hash(req.Password); err != nil {
			return fail(c, h.Logger, err)
		}
	}
	if err := h.Store.Users.Update(ctx, &u); err != nil {
		return fail(c, h.Logger, err)
	}
	if hash != "" {
		if err := h.Store.Users.SetPassword(ctx, u.ID, hash); err != nil {
			return fail(c, h.Logger, err)
		}
	}
	audit(c, h.Audit, queue.ActionUpdate, "users", u.ID)
	return c.JSON(http.StatusOK, u)
}

// hash rejects passwords bcrypt cannot take as a validation error.
func (h *AdminHandler) hash(password string) (string, error) {
	hash, err := utils.HashPassword(password, h.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", invalid("password must be at most 72 bytes")
	}
	return hash, err
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")
	if me, ok := actor(c); ok && me.ID == id {
		return fail(c, h.Logger, repository.ErrForbidden)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Store.Users.Delete(ctx, id); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionDelete, "users", id)
	return c.NoContent(http.StatusNoContent)
}

// ----- groups -----

type groupReq struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	AccessLevelID string `json:"accessLevelId"`
}

func (h *AdminHandler) applyGroup(ctx context.Context, req groupReq, g *model.Group) error {
	g.Name = strings.TrimSpace(req.Name)
	g.Description = strings.TrimSpace(req.Description)
	g.AccessLevelID = strings.TrimSpace(req.AccessLevelID)
	if g.Name == "" || g.AccessLevelID == "" {
		return invalid("name and accessLevelId required")
	}
	return h.checkAccessLevel(ctx, g.AccessLevelID)
}

func (h *AdminHandler) ListGroups(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	groups, err := h.Store.Groups.List(ctx)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, groups)
}

func (h *AdminHandler) GetGroup(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	g, err := h.Store.Groups.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *AdminHandler) CreateGroup(c echo.Context) error {
	var req groupReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	var g model.Group
	if err := h.applyGroup(ctx, req, &g); err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Store.Groups.Create(ctx, &g); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionCreate, "groups", g.ID)
	return c.JSON(http.StatusCreated, g)
}

func (h *AdminHandler) UpdateGroup(c echo.Context) error {
	var req groupReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Store.Groups.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.applyGroup(ctx, req, &g); err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Store.Groups.Update(ctx, &g); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionUpdate, "groups", g.ID)
	return c.JSON(http.StatusOK, g)
}

func (h *AdminHandler) DeleteGroup(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Store.Groups.Delete(ctx, id); err != nil {
		return fail(c, h.Logger, err)
	}
	audit(c, h.Audit, queue.ActionDelete, "groups", id)
	return c.NoContent(http.StatusNoContent)
}
