package store

import (
	"context"

	"github.com/opsgraph/backend/pkg/common"
)

// UpsertResult reports what a write did to the graph. Created counts only
// new elements; a re-run of the same batch creates nothing but still sets
// properties, which PropertiesSet reflects.
type UpsertResult struct {
	NodesCreated     int64
	RelationsCreated int64
	PropertiesSet    int64
}

// Passage is a stored text chunk, the retrievable unit for similarity search.
type Passage struct {
	ID           string
	Text         string
	HasEmbedding bool
}

// PassageVector pairs a passage with its embedding for index writes.
type PassageVector struct {
	ID     string
	Text   string
	Vector []float32
}

// ScoredPassage is a similarity search hit.
type ScoredPassage struct {
	ID    string
	Text  string
	Score float64
}

// GraphStore defines the interface for persisting and querying the incident
// knowledge graph. All writes go through this interface; each method uses
// the store's transactional unit of work, so a failed call leaves no
// half-applied statement behind.
type GraphStore interface {
	// EnsureSchema declares the uniqueness constraints for every
	// unique-keyed entity type. Idempotent; must complete before the
	// first ingest on a fresh store.
	EnsureSchema(ctx context.Context) error

	// UpsertIncidents merges a batch of validated incident records and
	// their nested entities and relationships in one write transaction.
	UpsertIncidents(ctx context.Context, records []*common.IncidentRecord) (UpsertResult, error)

	// MergeCloneEdge merges a directed clone edge from the incident with
	// sourceKey to the incident with targetKey. Returns false when the
	// target does not exist; that is not an error.
	MergeCloneEdge(ctx context.Context, sourceKey string, targetKey string) (bool, error)

	// ListPassages returns all stored passages ordered by id.
	ListPassages(ctx context.Context) ([]Passage, error)

	// SchemaDescription returns a textual description of the current
	// graph schema: node labels, relationship types and property names.
	SchemaDescription(ctx context.Context) (string, error)

	// ExecuteQuery runs an ad-hoc read query and returns at most limit rows.
	ExecuteQuery(ctx context.Context, query string, limit int) ([]map[string]any, error)

	// NodeCount returns the total number of nodes in the graph.
	NodeCount(ctx context.Context) (int64, error)

	// Wipe removes every node and relationship from the graph.
	Wipe(ctx context.Context) error

	Close(ctx context.Context) error
}

// VectorIndex is a nearest-neighbour index over passage embeddings with a
// cosine similarity metric. Implementations exist for the graph store's
// native vector index and for a pgvector-backed table.
type VectorIndex interface {
	// EnsureIndex idempotently declares the similarity index for the
	// given dimensionality. Declaring an index that already exists with
	// a different dimensionality is a configuration error.
	EnsureIndex(ctx context.Context, dimensions int) error

	// UpsertVectors attaches embeddings to the given passages,
	// overwriting any previous vectors.
	UpsertVectors(ctx context.Context, items []PassageVector) error

	// Search returns the k nearest passages to the given vector, in
	// descending similarity order.
	Search(ctx context.Context, vector []float32, k int) ([]ScoredPassage, error)
}
