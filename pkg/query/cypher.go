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

type cypherOutput struct {
	Cypher string `json:"cypher" jsonschema_description:"A single Cypher statement answering the question"`
}

// GraphQueryStrategy answers questions by letting the model synthesize a
// Cypher statement against the live graph schema and executing it. The
// schema description is fetched once at construction; RefreshSchema picks
// up later schema changes.
type GraphQueryStrategy struct {
	aiClient    ai.GraphAIClient
	storeClient store.GraphStore
	schema      string
	topK        int
	opts        []ai.GenerateOption
}

// NewGraphQueryStrategyParams defines the configuration parameters for
// creating a new GraphQueryStrategy.
//
// TopK caps the result rows returned from a synthesized statement.
// GenerateOptions are passed through to every model call, e.g. to pin
// the model.
type NewGraphQueryStrategyParams struct {
	AIClient        ai.GraphAIClient
	StoreClient     store.GraphStore
	TopK            int
	GenerateOptions []ai.GenerateOption
}

// NewGraphQueryStrategy creates a new GraphQueryStrategy and loads the
// current schema description from the store.
func NewGraphQueryStrategy(ctx context.Context, params NewGraphQueryStrategyParams) (*GraphQueryStrategy, error) {
	if params.AIClient == nil || params.StoreClient == nil {
		return nil, common.ConfigurationErrorf("graph query strategy requires an AI client and a store")
	}
	topK := params.TopK
	if topK <= 0 {
		topK = 10
	}

	s := &GraphQueryStrategy{
		aiClient:    params.AIClient,
		storeClient: params.StoreClient,
		topK:        topK,
		opts:        params.GenerateOptions,
	}
	if err := s.RefreshSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// RefreshSchema reloads the schema description used in the synthesis prompt.
func (s *GraphQueryStrategy) RefreshSchema(ctx context.Context) error {
	schema, err := s.storeClient.SchemaDescription(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schema description: %w", err)
	}
	s.schema = schema
	return nil
}

func (s *GraphQueryStrategy) Name() string {
	return "graph_query"
}

// Answer synthesizes a Cypher statement for the question, runs it against
// the graph, and returns the result rows. The synthesized statement is
// executed as generated; row output is returned without a second
// summarization pass.
func (s *GraphQueryStrategy) Answer(ctx context.Context, question string) (Answer, error) {
	prompt := fmt.Sprintf(ai.CypherPrompt, s.schema, question)

	opts := append([]ai.GenerateOption{ai.WithTemperature(0.0)}, s.opts...)

	var out cypherOutput
	err := s.aiClient.GenerateCompletionWithFormat(
		ctx,
		"cypher_statement",
		"A Cypher statement that answers the user's question",
		prompt,
		&out,
		opts...,
	)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to synthesize query: %w", err)
	}

	statement := strings.TrimSpace(ai.StripCodeFence(out.Cypher))
	if statement == "" {
		return Answer{}, common.ValidationErrorf("model returned an empty query for question %q", question)
	}

	logger.Debug("[Query][Graph] Executing synthesized statement", "cypher", statement)

	rows, err := s.storeClient.ExecuteQuery(ctx, statement, s.topK)
	if err != nil {
		return Answer{GeneratedQuery: statement}, fmt.Errorf("failed to execute synthesized query: %w", err)
	}

	answer := Answer{
		Rows:           rows,
		GeneratedQuery: statement,
	}
	if len(rows) == 0 {
		text, err := s.aiClient.GenerateCompletion(ctx, fmt.Sprintf(ai.NoDataPrompt, question), s.opts...)
		if err != nil {
			return answer, nil
		}
		answer.Text = strings.TrimSpace(text)
	}
	return answer, nil
}
