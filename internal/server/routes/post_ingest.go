package routes

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsgraph/backend/internal/queue"
	"github.com/opsgraph/backend/internal/server/middleware"
	"github.com/opsgraph/backend/internal/storage"
	"github.com/opsgraph/backend/internal/util"
	"github.com/opsgraph/backend/pkg/common"
	"github.com/opsgraph/backend/pkg/logger"
)

// IngestBatchHandler accepts an incident batch and enqueues it as an
// ingest job. The batch arrives inline as a JSON array or as a source
// reference (local path or s3:// key) the worker resolves itself.
func IngestBatchHandler(c echo.Context) error {
	type ingestBody struct {
		Source      string                   `json:"source"`
		Records     []*common.IncidentRecord `json:"records"`
		Incremental bool                     `json:"incremental"`
	}

	type ingestResponse struct {
		Message string `json:"message"`
		JobID   string `json:"job_id,omitempty"`
	}

	data := new(ingestBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}
	if data.Source == "" && len(data.Records) == 0 {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Batch needs a source or inline records",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	jobID, err := util.NewJobID()
	if err != nil {
		logger.Error("Failed to generate job id", "err", err)
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Internal server error",
		})
	}

	job := queue.IngestJobMsg{
		JobID:       jobID,
		Message:     "Incident batch submitted",
		Source:      data.Source,
		Records:     data.Records,
		Incremental: data.Incremental,
	}

	// Inline batches go to object storage so the queue message stays small.
	if len(data.Records) > 0 && data.Source == "" && app.S3 != nil {
		payload, err := json.Marshal(data.Records)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, ingestResponse{
				Message: "Internal server error",
			})
		}
		key, err := storage.PutFile(ctx, app.S3, "batches", jobID, bytes.NewReader(payload))
		if err != nil {
			logger.Error("Failed to upload batch", "job_id", jobID, "err", err)
			return c.JSON(http.StatusInternalServerError, ingestResponse{
				Message: "Internal server error",
			})
		}
		job.Records = nil
		job.Source = "s3://" + key
	}

	msg, err := json.Marshal(job)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Internal server error",
		})
	}

	if err := queue.PublishFIFO(app.Queue, queue.IngestQueue, msg); err != nil {
		logger.Error("Failed to publish ingest job", "job_id", jobID, "err", err)
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Internal server error",
		})
	}

	logger.Info("Ingest job queued", "job_id", jobID, "source", job.Source, "inline_records", len(job.Records))

	return c.JSON(http.StatusAccepted, ingestResponse{
		Message: "Batch accepted",
		JobID:   jobID,
	})
}
