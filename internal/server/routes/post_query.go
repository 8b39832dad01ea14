package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsgraph/backend/internal/server/middleware"
	"github.com/opsgraph/backend/pkg/ai"
	"github.com/opsgraph/backend/pkg/logger"
)

// QueryGraphHandler answers a natural-language question against the
// knowledge graph through the strategy router.
func QueryGraphHandler(c echo.Context) error {
	type queryBody struct {
		Question string `json:"question" validate:"required"`
	}

	type queryResponse struct {
		Message        string           `json:"message"`
		Strategy       string           `json:"strategy,omitempty"`
		Text           string           `json:"text,omitempty"`
		Rows           []map[string]any `json:"rows,omitempty"`
		GeneratedQuery string           `json:"generated_query,omitempty"`
		Error          string           `json:"error,omitempty"`
		Metrics        *ai.ModelMetrics `json:"metrics,omitempty"`
	}

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	answer, err := app.Router.Ask(ctx, data.Question)
	if err != nil {
		// only blank-question validation reaches here; strategy
		// failures come back inside the answer
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Question is required",
		})
	}

	message := "OK"
	if answer.Error != "" {
		logger.Error("[Query] Failed to answer question", "strategy", answer.Strategy, "err", answer.Error)
		message = "Failed to answer question"
	}

	metrics := app.AiClient.GetMetrics()
	return c.JSON(http.StatusOK, queryResponse{
		Message:        message,
		Strategy:       answer.Strategy,
		Text:           answer.Text,
		Rows:           answer.Rows,
		GeneratedQuery: answer.GeneratedQuery,
		Error:          answer.Error,
		Metrics:        &metrics,
	})
}
