package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MergeCloneEdge merges a directed CLONES edge between two incidents
// identified by their human-readable keys. When the target incident does
// not exist the MATCH yields nothing and no edge is created; the method
// reports that as linked=false, not as an error.
func (s *GraphDBStorage) MergeCloneEdge(ctx context.Context, sourceKey string, targetKey string) (bool, error) {
	session := s.writeSession(ctx)
	defer session.Close(ctx)

	linked, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (src:Incident {key: $sourceKey})
MATCH (target:Incident {key: $targetKey})
MERGE (src)-[:CLONES]->(target)
RETURN count(target) AS matched
`, map[string]any{
			"sourceKey": sourceKey,
			"targetKey": targetKey,
		})
		if err != nil {
			return false, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return false, err
		}
		// zero rows: source or target incident missing
		if len(records) == 0 {
			return false, nil
		}
		matched, _ := records[0].Get("matched")
		count, ok := matched.(int64)
		return ok && count > 0, nil
	})
	if err != nil {
		return false, fmt.Errorf("merge clone edge %s -> %s: %w", sourceKey, targetKey, err)
	}

	return linked.(bool), nil
}
