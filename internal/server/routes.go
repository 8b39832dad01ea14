package server

import (
	"github.com/opsgraph/backend/internal/server/middleware"
	"github.com/opsgraph/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Graph routes
	apiRoutes.POST("/graph/ingest", routes.IngestBatchHandler)
	apiRoutes.POST("/graph/query", routes.QueryGraphHandler)
	apiRoutes.GET("/graph/stats", routes.GetGraphStatsHandler)
	apiRoutes.DELETE("/graph", routes.WipeGraphHandler, middleware.RequireAdmin)
}
