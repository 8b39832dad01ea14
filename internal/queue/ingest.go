package queue

import (
	"context"
	"encoding/json"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/opsgraph/backend/internal/batch"
	"github.com/opsgraph/backend/internal/util"
	"github.com/opsgraph/backend/pkg/ai"
	"github.com/opsgraph/backend/pkg/graph"
	"github.com/opsgraph/backend/pkg/logger"
	"github.com/opsgraph/backend/pkg/store"
)

// ProcessIngestMessage handles one ingest job: it loads the incident batch,
// runs the full graph build pipeline, and logs the outcome. Returning an
// error sends the message to the retry queue.
func ProcessIngestMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.GraphAIClient,
	storeClient store.GraphStore,
	vectorIndex store.VectorIndex,
	msg string,
) error {
	data := new(IngestJobMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	logger.Info("[Queue] Ingest job received", "job_id", data.JobID, "source", data.Source, "inline_records", len(data.Records))

	records := data.Records
	if data.Source != "" {
		loaded, err := batch.LoadRecords(ctx, s3Client, data.Source)
		if err != nil {
			return err
		}
		records = append(records, loaded...)
	}

	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
		TokenEncoder:    util.GetEnvString("AI_TOKEN_ENCODER", "o200k_base"),
		IngestBatchSize: int(util.GetEnvNumeric("INGEST_BATCH_SIZE", 100)),
		EmbedBatchSize:  int(util.GetEnvNumeric("EMBED_BATCH_SIZE", 64)),
		EmbedDimensions: int(util.GetEnvNumeric("AI_EMBED_DIM", 1024)),
		Incremental:     data.Incremental,
	})
	if err != nil {
		return err
	}

	summary, err := client.BuildGraph(ctx, records, aiClient, storeClient, vectorIndex)
	if err != nil {
		return err
	}

	logger.Info("[Queue] Ingest job completed",
		"job_id", data.JobID,
		"incidents", summary.Ingest.IncidentsProcessed,
		"rejected", len(summary.Ingest.Rejected),
		"clone_edges", summary.CloneEdges,
		"passages_indexed", summary.Index.PassagesIndexed,
	)

	return nil
}
