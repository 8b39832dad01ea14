package query

import (
	"context"
)

// Answer is the result of one retrieval strategy run.
//
// Text holds the human-readable answer. Rows carries the raw result rows
// when the strategy produced tabular data. GeneratedQuery exposes the
// synthesized database statement for callers that want to display it.
// Error carries a strategy failure as part of the answer; callers render
// it instead of Text when set.
type Answer struct {
	Strategy       string           `json:"strategy"`
	Text           string           `json:"text,omitempty"`
	Rows           []map[string]any `json:"rows,omitempty"`
	GeneratedQuery string           `json:"generated_query,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// Strategy answers a natural-language question against the incident
// knowledge graph. Implementations exist for synthesized graph queries
// and for embedding similarity search.
type Strategy interface {
	Name() string
	Answer(ctx context.Context, question string) (Answer, error)
}
