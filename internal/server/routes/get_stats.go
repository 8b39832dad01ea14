package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsgraph/backend/internal/server/middleware"
	"github.com/opsgraph/backend/pkg/logger"
)

// GetGraphStatsHandler reports basic graph size figures.
func GetGraphStatsHandler(c echo.Context) error {
	type statsResponse struct {
		Message          string `json:"message"`
		Nodes            int64  `json:"nodes"`
		Passages         int    `json:"passages"`
		PassagesEmbedded int    `json:"passages_embedded"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	nodes, err := app.GraphStore.NodeCount(ctx)
	if err != nil {
		logger.Error("Failed to count nodes", "err", err)
		return c.JSON(http.StatusInternalServerError, statsResponse{
			Message: "Internal server error",
		})
	}

	passages, err := app.GraphStore.ListPassages(ctx)
	if err != nil {
		logger.Error("Failed to list passages", "err", err)
		return c.JSON(http.StatusInternalServerError, statsResponse{
			Message: "Internal server error",
		})
	}

	embedded := 0
	for _, p := range passages {
		if p.HasEmbedding {
			embedded++
		}
	}

	return c.JSON(http.StatusOK, statsResponse{
		Message:          "OK",
		Nodes:            nodes,
		Passages:         len(passages),
		PassagesEmbedded: embedded,
	})
}
