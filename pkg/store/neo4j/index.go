package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/opsgraph/backend/pkg/common"
	"github.com/opsgraph/backend/pkg/store"
)

const vectorIndexName = "passage_embeddings"

// VectorIndexStorage implements store.VectorIndex on top of the graph's
// native vector index. Vectors live on Passage nodes so similarity search
// stays inside the same database as the graph itself.
type VectorIndexStorage struct {
	store *GraphDBStorage
}

func NewVectorIndexStorage(graphStore *GraphDBStorage) *VectorIndexStorage {
	return &VectorIndexStorage{store: graphStore}
}

// EnsureIndex creates the passage vector index if it does not exist yet.
// When the index already exists with a different dimension count the call
// fails, since queries against a mismatched index silently return nothing.
func (v *VectorIndexStorage) EnsureIndex(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return common.ConfigurationErrorf("vector index dimensions must be positive, got %d", dimensions)
	}

	session := v.store.writeSession(ctx)
	defer session.Close(ctx)

	existing, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
SHOW VECTOR INDEXES YIELD name, options
WHERE name = $name
RETURN options
`, map[string]any{"name": vectorIndexName})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, res.Err()
		}
		options, _ := res.Record().Get("options")
		return options, nil
	})
	if err != nil {
		return fmt.Errorf("inspect vector index: %w", err)
	}

	if existing != nil {
		if current, ok := indexDimensions(existing); ok && current != dimensions {
			return common.ConfigurationErrorf(
				"vector index %q has %d dimensions, embedding model produces %d",
				vectorIndexName, current, dimensions,
			)
		}
		return nil
	}

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(`
CREATE VECTOR INDEX %s IF NOT EXISTS
FOR (p:Passage) ON (p.embedding)
OPTIONS {indexConfig: {
	`+"`vector.dimensions`"+`: $dimensions,
	`+"`vector.similarity_function`"+`: 'cosine'
}}
`, vectorIndexName), map[string]any{"dimensions": dimensions})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}
	return nil
}

func indexDimensions(options any) (int, bool) {
	opts, ok := options.(map[string]any)
	if !ok {
		return 0, false
	}
	config, ok := opts["indexConfig"].(map[string]any)
	if !ok {
		return 0, false
	}
	switch dims := config["vector.dimensions"].(type) {
	case int64:
		return int(dims), true
	case float64:
		return int(dims), true
	}
	return 0, false
}

// UpsertVectors attaches embeddings to their passages. Embeddings are set
// through the dedicated vector property procedure so the index picks them
// up as typed vectors rather than plain float lists.
func (v *VectorIndexStorage) UpsertVectors(ctx context.Context, vectors []store.PassageVector) error {
	if len(vectors) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(vectors))
	for _, vec := range vectors {
		embedding := make([]float64, len(vec.Vector))
		for i, f := range vec.Vector {
			embedding[i] = float64(f)
		}
		rows = append(rows, map[string]any{
			"id":        vec.ID,
			"embedding": embedding,
		})
	}

	session := v.store.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rows AS row
MATCH (p:Passage {id: row.id})
CALL db.create.setNodeVectorProperty(p, 'embedding', row.embedding)
`, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// Search returns the k passages most similar to the query vector, most
// similar first.
func (v *VectorIndexStorage) Search(ctx context.Context, vector []float32, k int) ([]store.ScoredPassage, error) {
	if k <= 0 {
		k = 3
	}

	query := make([]float64, len(vector))
	for i, f := range vector {
		query[i] = float64(f)
	}

	session := v.store.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
CALL db.index.vector.queryNodes($index, $k, $vector)
YIELD node, score
RETURN node.id AS id, node.text AS text, score
ORDER BY score DESC
`, map[string]any{
			"index":  vectorIndexName,
			"k":      k,
			"vector": query,
		})
		if err != nil {
			return nil, err
		}

		matches := []store.ScoredPassage{}
		for res.Next(ctx) {
			record := res.Record()
			match := store.ScoredPassage{}
			if id, ok := record.Get("id"); ok {
				match.ID, _ = id.(string)
			}
			if text, ok := record.Get("text"); ok {
				match.Text, _ = text.(string)
			}
			if score, ok := record.Get("score"); ok {
				match.Score, _ = score.(float64)
			}
			matches = append(matches, match)
		}
		return matches, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	return result.([]store.ScoredPassage), nil
}
