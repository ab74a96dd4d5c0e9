package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-console/internal/handler"
	"github.com/iliyamo/admin-console/internal/middleware"
)

// RegisterAdmin registers the management endpoints under /v1/admin.  All
// routes require an authenticated admin.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, session echo.MiddlewareFunc) {
	g := e.Group("/v1/admin", session, middleware.RequireAdmin())

	// ---- Users ----
	g.GET("/users", h.ListUsers)
	g.POST("/users", h.CreateUser)
	g.GET("/users/:id", h.GetUser)
	g.PUT("/users/:id", h.UpdateUser)
	g.DELETE("/users/:id", h.DeleteUser)

	// ---- Groups ----
	g.GET("/groups", h.ListGroups)
	g.POST("/groups", h.CreateGroup)
	g.GET("/groups/:id", h.GetGroup)
	g.PUT("/groups/:id", h.UpdateGroup)
	g.DELETE("/groups/:id", h.DeleteGroup)

	// ---- Access levels ----
	g.GET("/access-levels", h.ListAccessLevels)
	g.POST("/access-levels", h.CreateAccessLevel)
	g.GET("/access-levels/:id", h.GetAccessLevel)
	g.PUT("/access-levels/:id", h.UpdateAccessLevel)
	g.DELETE("/access-levels/:id", h.DeleteAccessLevel)

	// ---- Menus ----
	g.GET("/menus", h.ListMenus)
	g.GET("/menus/tree", h.MenuTree) // static segment wins over :id
	g.POST("/menus", h.CreateMenu)
	g.GET("/menus/:id", h.GetMenu)
	g.PUT("/menus/:id", h.UpdateMenu)
	g.DELETE("/menus/:id", h.DeleteMenu)

	// ---- Screens ----
	g.GET("/screens", h.ListScreens)
	g.POST("/screens", h.CreateScreen)
	g.GET("/screens/:id", h.GetScreen)
	g.PUT("/screens/:id", h.UpdateScreen)
	g.DELETE("/screens/:id", h.DeleteScreen)

	// ---- Permissions ----
	g.GET("/permissions", h.ListPermissions)
	g.POST("/permissions", h.CreatePermission)
	g.GET("/permissions/:id", h.GetPermission)
	g.PUT("/permissions/:id", h.UpdatePermission)
	g.DELETE("/permissions/:id", h.DeletePermission)
}
