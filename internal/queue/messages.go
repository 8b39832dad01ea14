package queue

import "github.com/opsgraph/backend/pkg/common"

// IngestJobMsg is the payload of one ingest job on the ingest queue.
// Either Source points at a batch file (local path or s3:// key) or
// Records carries the batch inline for small submissions.
type IngestJobMsg struct {
	JobID       string                   `json:"job_id"`
	Message     string                   `json:"message,omitempty"`
	Source      string                   `json:"source,omitempty"`
	Records     []*common.IncidentRecord `json:"records,omitempty"`
	Incremental bool                     `json:"incremental,omitempty"`
}
