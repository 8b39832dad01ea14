package graph

import (
	"context"

	"github.com/opsgraph/backend/internal/util"
	"github.com/opsgraph/backend/pkg/common"
	"github.com/opsgraph/backend/pkg/logger"
	"github.com/opsgraph/backend/pkg/store"
)

// Ingest validates and merges a batch of incident records into the graph.
// Records failing validation are skipped and reported in the summary; they
// never abort the batch. Valid records are upserted in chunks, each chunk
// in its own transaction, so re-running the same batch converges instead
// of duplicating.
func (g *GraphClient) Ingest(
	ctx context.Context,
	records []*common.IncidentRecord,
	storeClient store.GraphStore,
) (common.IngestSummary, error) {
	summary := common.IngestSummary{}

	valid := make([]*common.IncidentRecord, 0, len(records))
	for _, record := range records {
		if err := common.ValidateRecord(record); err != nil {
			rejected := common.RejectedRecord{Reason: err.Error()}
			if record != nil {
				rejected.ID = record.ID
				rejected.Key = record.Key
			}
			summary.Rejected = append(summary.Rejected, rejected)
			logger.Warn("[Graph][Ingest] Skipping invalid record", "id", rejected.ID, "key", rejected.Key, "err", err)
			continue
		}
		valid = append(valid, record)
	}

	if len(valid) == 0 {
		if len(summary.Rejected) > 0 && len(summary.Rejected) == len(records) {
			return summary, common.ValidationErrorf("all %d records rejected", len(records))
		}
		return summary, nil
	}

	err := store.ChunkRange(len(valid), g.ingestBatchSize, func(start, end int) error {
		chunk := valid[start:end]
		logger.Debug("[Graph][Ingest] Upserting chunk", "incidents", len(chunk))

		return util.RetryErrWithContext(ctx, g.maxRetries, func(ctx context.Context) error {
			result, err := storeClient.UpsertIncidents(ctx, chunk)
			if err != nil {
				return err
			}
			summary.IncidentsProcessed += len(chunk)
			summary.NodesCreated += result.NodesCreated
			summary.RelationsCreated += result.RelationsCreated
			summary.PropertiesSet += result.PropertiesSet
			return nil
		})
	})
	if err != nil {
		return summary, err
	}

	logger.Info("[Graph][Ingest] Batch ingested",
		"incidents", summary.IncidentsProcessed,
		"rejected", len(summary.Rejected),
		"nodes_created", summary.NodesCreated,
		"relations_created", summary.RelationsCreated,
		"properties_set", summary.PropertiesSet,
	)

	return summary, nil
}

// LinkClones runs the second ingest pass that resolves clone references
// into edges. The pass runs after every incident of the batch is merged,
// so clones pointing at incidents from the same batch resolve. A clone
// reference whose target key is unknown is logged and skipped; a record
// cloning itself is a no-op.
func (g *GraphClient) LinkClones(
	ctx context.Context,
	records []*common.IncidentRecord,
	storeClient store.GraphStore,
) (int, error) {
	linked := 0

	for _, record := range records {
		if record == nil || record.Clones == "" {
			continue
		}
		if record.Key == record.Clones {
			logger.Warn("[Graph][Link] Incident clones itself, skipping", "key", record.Key)
			continue
		}

		sourceKey := record.Key
		targetKey := record.Clones
		err := util.RetryErrWithContext(ctx, g.maxRetries, func(ctx context.Context) error {
			ok, err := storeClient.MergeCloneEdge(ctx, sourceKey, targetKey)
			if err != nil {
				return err
			}
			if !ok {
				logger.Warn("[Graph][Link] Clone target not found", "source", sourceKey, "target", targetKey)
				return nil
			}
			linked++
			return nil
		})
		if err != nil {
			return linked, err
		}
	}

	logger.Info("[Graph][Link] Clone pass completed", "edges", linked)
	return linked, nil
}
