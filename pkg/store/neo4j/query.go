package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/opsgraph/backend/pkg/store"
)

// ListPassages returns every stored passage in deterministic order by id.
func (s *GraphDBStorage) ListPassages(ctx context.Context) ([]store.Passage, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (p:Passage)
RETURN p.id AS id, p.text AS text, p.embedding IS NOT NULL AS has_embedding
ORDER BY p.id
`, nil)
		if err != nil {
			return nil, err
		}

		passages := []store.Passage{}
		for res.Next(ctx) {
			record := res.Record()
			passage := store.Passage{}
			if id, ok := record.Get("id"); ok {
				passage.ID, _ = id.(string)
			}
			if text, ok := record.Get("text"); ok {
				passage.Text, _ = text.(string)
			}
			if has, ok := record.Get("has_embedding"); ok {
				passage.HasEmbedding, _ = has.(bool)
			}
			passages = append(passages, passage)
		}
		return passages, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list passages: %w", err)
	}

	return result.([]store.Passage), nil
}

// SchemaDescription builds a textual description of the graph schema:
// node labels, relationship types and property keys. The graph-query
// strategy embeds this text in its generation prompt.
func (s *GraphDBStorage) SchemaDescription(ctx context.Context) (string, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		labels, err := collectStrings(ctx, tx, `CALL db.labels() YIELD label RETURN label ORDER BY label`, "label")
		if err != nil {
			return nil, err
		}
		relTypes, err := collectStrings(ctx, tx, `CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType ORDER BY relationshipType`, "relationshipType")
		if err != nil {
			return nil, err
		}
		props, err := collectStrings(ctx, tx, `CALL db.propertyKeys() YIELD propertyKey RETURN propertyKey ORDER BY propertyKey`, "propertyKey")
		if err != nil {
			return nil, err
		}

		var b strings.Builder
		b.WriteString("Node labels: ")
		b.WriteString(strings.Join(labels, ", "))
		b.WriteString("\nRelationship types: ")
		b.WriteString(strings.Join(relTypes, ", "))
		b.WriteString("\nProperty keys: ")
		b.WriteString(strings.Join(props, ", "))
		return b.String(), nil
	})
	if err != nil {
		return "", fmt.Errorf("describe schema: %w", err)
	}

	return result.(string), nil
}

func collectStrings(ctx context.Context, tx neo4j.ManagedTransaction, query string, field string) ([]string, error) {
	res, err := tx.Run(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for res.Next(ctx) {
		if v, ok := res.Record().Get(field); ok {
			if str, ok := v.(string); ok {
				out = append(out, str)
			}
		}
	}
	return out, res.Err()
}

// ExecuteQuery runs an ad-hoc Cypher read query and returns at most limit
// rows as maps keyed by the query's return aliases.
func (s *GraphDBStorage) ExecuteQuery(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = 10
	}

	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}

		rows := []map[string]any{}
		for len(rows) < limit && res.Next(ctx) {
			rows = append(rows, res.Record().AsMap())
		}
		return rows, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}

	return result.([]map[string]any), nil
}

// NodeCount returns the total number of nodes in the graph.
func (s *GraphDBStorage) NodeCount(ctx context.Context) (int64, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (n) RETURN count(n) AS count`, nil)
		if err != nil {
			return int64(0), err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return int64(0), err
		}
		count, _ := record.Get("count")
		return count, nil
	})
	if err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}

	count, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", result)
	}
	return count, nil
}

// Wipe removes every node and relationship from the graph. Constraints and
// indexes survive; only the explicit full-reset operation uses this.
func (s *GraphDBStorage) Wipe(ctx context.Context) error {
	session := s.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (n) DETACH DELETE n`, nil)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("wipe graph: %w", err)
	}
	return nil
}
