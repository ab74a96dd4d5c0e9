package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-console/internal/handler"
	"github.com/iliyamo/admin-console/internal/middleware"
)

// RegisterConsole registers the endpoints any signed-in user may call:
// screen content, analytics and Power BI.  limit guards SQL execution and
// cache fronts the embed endpoint.
func RegisterConsole(e *echo.Echo, sc *handler.ScreenHandler, an *handler.AnalyticsHandler, pb *handler.PowerBIHandler, session, limit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", session, middleware.RequireSession())

	g.GET("/screens/:id", sc.ViewScreen)

	// ---- Analytics ----
	g.GET("/analytics/queries", an.ListQueries)
	g.POST("/analytics/queries", an.CreateQuery)
	g.GET("/analytics/queries/:id", an.GetQuery)
	g.PUT("/analytics/queries/:id", an.UpdateQuery)
	g.DELETE("/analytics/queries/:id", an.DeleteQuery)
	g.POST("/analytics/queries/:id/run", an.RunQuery, limit)
	g.POST("/analytics/execute", an.Execute, limit)

	// ---- Power BI ----
	g.GET("/powerbi/reports", pb.ListReports)
	g.POST("/powerbi/reports", pb.CreateReport)
	g.GET("/powerbi/reports/:id", pb.GetReport)
	g.PUT("/powerbi/reports/:id", pb.UpdateReport)
	g.DELETE("/powerbi/reports/:id", pb.DeleteReport)
	g.GET("/powerbi/reports/:id/embed", pb.EmbedReport, cache)
}
