package graph

import (
	"context"

	"github.com/pkoukk/tiktoken-go"

	"github.com/opsgraph/backend/internal/util"
	"github.com/opsgraph/backend/pkg/ai"
	"github.com/opsgraph/backend/pkg/common"
	"github.com/opsgraph/backend/pkg/logger"
	"github.com/opsgraph/backend/pkg/store"
)

// embedBatchTokenBudget caps the total token count of one embedding request.
const embedBatchTokenBudget = 8000

func countTokens(encoder string, text string) int {
	if encoder != "" {
		if enc, err := tiktoken.GetEncoding(encoder); err == nil {
			return len(enc.Encode(text, nil, nil))
		}
	}
	return len(text) / 4
}

// IndexPassages embeds stored passages and writes the vectors into the
// similarity index. By default every non-empty passage is re-embedded so
// the index always reflects the current embedding model; with Incremental
// set only passages without an embedding are processed.
//
// Passages are embedded in batches. A batch whose embedding response does
// not line up one-to-one with its inputs aborts the run, leaving vectors
// from earlier batches in place; misaligned vectors must never reach the
// index.
func (g *GraphClient) IndexPassages(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	storeClient store.GraphStore,
	vectorIndex store.VectorIndex,
) (common.IndexSummary, error) {
	summary := common.IndexSummary{Dimensions: g.embedDimensions}

	if vectorIndex == nil {
		logger.Warn("[Graph][Index] No vector index configured, skipping passage indexing")
		return summary, nil
	}

	if err := vectorIndex.EnsureIndex(ctx, g.embedDimensions); err != nil {
		return summary, err
	}
	summary.IndexEnsured = true

	passages, err := util.RetryWithContext(ctx, g.maxRetries, func(ctx context.Context) ([]store.Passage, error) {
		return storeClient.ListPassages(ctx)
	})
	if err != nil {
		return summary, err
	}

	pending := make([]store.Passage, 0, len(passages))
	for _, p := range passages {
		if p.Text == "" {
			continue
		}
		if g.incremental && p.HasEmbedding {
			continue
		}
		pending = append(pending, p)
	}

	logger.Info("[Graph][Index] Indexing passages",
		"total", len(passages),
		"pending", len(pending),
		"incremental", g.incremental,
	)

	for start := 0; start < len(pending); {
		end := start + 1
		budget := embedBatchTokenBudget - countTokens(g.tokenEncoder, pending[start].Text)
		for end < len(pending) && end-start < g.embedBatchSize {
			cost := countTokens(g.tokenEncoder, pending[end].Text)
			if cost > budget {
				break
			}
			budget -= cost
			end++
		}
		batch := pending[start:end]
		start = end

		inputs := make([][]byte, len(batch))
		for i, p := range batch {
			inputs[i] = []byte(p.Text)
		}

		vectors, err := util.RetryWithContext(ctx, g.maxRetries, func(ctx context.Context) ([][]float32, error) {
			return aiClient.GenerateEmbeddings(ctx, inputs)
		})
		if err != nil {
			return summary, err
		}
		if len(vectors) != len(batch) {
			return summary, common.AlignmentErrorf(
				"embedding batch returned %d vectors for %d passages", len(vectors), len(batch),
			)
		}

		items := make([]store.PassageVector, len(batch))
		for i, p := range batch {
			if len(vectors[i]) != g.embedDimensions {
				return summary, common.AlignmentErrorf(
					"embedding for passage %s has %d dimensions, expected %d",
					p.ID, len(vectors[i]), g.embedDimensions,
				)
			}
			items[i] = store.PassageVector{ID: p.ID, Text: p.Text, Vector: vectors[i]}
		}

		err = util.RetryErrWithContext(ctx, g.maxRetries, func(ctx context.Context) error {
			return vectorIndex.UpsertVectors(ctx, items)
		})
		if err != nil {
			return summary, err
		}

		summary.PassagesIndexed += len(batch)
		summary.Batches++
		logger.Debug("[Graph][Index] Batch indexed", "passages", len(batch), "batch", summary.Batches)
	}

	logger.Info("[Graph][Index] Indexing completed",
		"passages", summary.PassagesIndexed,
		"batches", summary.Batches,
	)

	return summary, nil
}
