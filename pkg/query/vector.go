package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/opsgraph/backend/pkg/ai"
	"github.com/opsgraph/backend/pkg/common"
	"github.com/opsgraph/backend/pkg/logger"
	"github.com/opsgraph/backend/pkg/store"
)

// SimilarityStrategy answers questions by embedding them and returning the
// nearest passages from the vector index, most similar first.
type SimilarityStrategy struct {
	aiClient    ai.GraphAIClient
	vectorIndex store.VectorIndex
	topK        int
}

// NewSimilarityStrategyParams defines the configuration parameters for
// creating a new SimilarityStrategy.
type NewSimilarityStrategyParams struct {
	AIClient    ai.GraphAIClient
	VectorIndex store.VectorIndex
	TopK        int
}

// NewSimilarityStrategy creates a new SimilarityStrategy configured with
// the provided parameters.
func NewSimilarityStrategy(params NewSimilarityStrategyParams) (*SimilarityStrategy, error) {
	if params.AIClient == nil || params.VectorIndex == nil {
		return nil, common.ConfigurationErrorf("similarity strategy requires an AI client and a vector index")
	}
	topK := params.TopK
	if topK <= 0 {
		topK = 3
	}
	return &SimilarityStrategy{
		aiClient:    params.AIClient,
		vectorIndex: params.VectorIndex,
		topK:        topK,
	}, nil
}

func (s *SimilarityStrategy) Name() string {
	return "similarity"
}

// Answer embeds the question and returns the nearest passages. The answer
// text concatenates the passage texts in descending similarity order; the
// rows expose id, text and score per hit.
func (s *SimilarityStrategy) Answer(ctx context.Context, question string) (Answer, error) {
	embedding, err := s.aiClient.GenerateEmbedding(ctx, []byte(question))
	if err != nil {
		return Answer{}, fmt.Errorf("failed to embed question: %w", err)
	}

	matches, err := s.vectorIndex.Search(ctx, embedding, s.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to search vector index: %w", err)
	}

	logger.Debug("[Query][Similarity] Search completed", "matches", len(matches))

	answer := Answer{Rows: make([]map[string]any, 0, len(matches))}
	texts := make([]string, 0, len(matches))
	for _, match := range matches {
		answer.Rows = append(answer.Rows, map[string]any{
			"id":    match.ID,
			"text":  match.Text,
			"score": match.Score,
		})
		if match.Text != "" {
			texts = append(texts, match.Text)
		}
	}
	answer.Text = strings.Join(texts, "\n\n")

	if len(matches) == 0 {
		text, err := s.aiClient.GenerateCompletion(ctx, fmt.Sprintf(ai.NoDataPrompt, question))
		if err != nil {
			return answer, nil
		}
		answer.Text = strings.TrimSpace(text)
	}
	return answer, nil
}
