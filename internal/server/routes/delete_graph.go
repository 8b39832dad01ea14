package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsgraph/backend/internal/server/middleware"
	"github.com/opsgraph/backend/pkg/logger"
)

// WipeGraphHandler removes every node and relationship from the graph.
// Constraints and indexes stay in place.
func WipeGraphHandler(c echo.Context) error {
	type wipeResponse struct {
		Message string `json:"message"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if err := app.GraphStore.Wipe(ctx); err != nil {
		logger.Error("Failed to wipe graph", "err", err)
		return c.JSON(http.StatusInternalServerError, wipeResponse{
			Message: "Internal server error",
		})
	}

	logger.Info("Graph wiped", "user", c.(*middleware.AppContext).User.Subject)

	return c.JSON(http.StatusOK, wipeResponse{
		Message: "Graph wiped",
	})
}
