package graph

import (
	"context"
	"fmt"

	"github.com/opsgraph/backend/pkg/ai"
	"github.com/opsgraph/backend/pkg/common"
	"github.com/opsgraph/backend/pkg/logger"
	"github.com/opsgraph/backend/pkg/store"
)

// BuildSummary aggregates the outcome of one full graph build.
type BuildSummary struct {
	Ingest     common.IngestSummary `json:"ingest"`
	CloneEdges int                  `json:"clone_edges"`
	Index      common.IndexSummary  `json:"index"`
}

// BuildGraph runs the full build pipeline over a batch of incident records:
// schema setup, incident ingestion, clone linking, and passage embedding.
// Each phase completes before the next starts; clone edges can reference
// incidents ingested in the same batch, and indexing sees every passage the
// batch produced.
func (g *GraphClient) BuildGraph(
	ctx context.Context,
	records []*common.IncidentRecord,
	aiClient ai.GraphAIClient,
	storeClient store.GraphStore,
	vectorIndex store.VectorIndex,
) (BuildSummary, error) {
	summary := BuildSummary{}

	logger.Info("[Graph] Building", "records", len(records))

	if err := storeClient.EnsureSchema(ctx); err != nil {
		return summary, fmt.Errorf("failed to ensure schema: %w", err)
	}

	ingestSummary, err := g.Ingest(ctx, records, storeClient)
	if err != nil {
		return summary, fmt.Errorf("failed to ingest incidents: %w", err)
	}
	summary.Ingest = ingestSummary

	linked, err := g.LinkClones(ctx, records, storeClient)
	if err != nil {
		return summary, fmt.Errorf("failed to link clones: %w", err)
	}
	summary.CloneEdges = linked

	indexSummary, err := g.IndexPassages(ctx, aiClient, storeClient, vectorIndex)
	if err != nil {
		return summary, fmt.Errorf("failed to index passages: %w", err)
	}
	summary.Index = indexSummary

	logger.Info("[Graph] Build completed",
		"incidents", summary.Ingest.IncidentsProcessed,
		"rejected", len(summary.Ingest.Rejected),
		"clone_edges", summary.CloneEdges,
		"passages_indexed", summary.Index.PassagesIndexed,
	)

	return summary, nil
}
