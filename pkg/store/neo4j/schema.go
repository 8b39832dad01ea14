package neo4j

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/opsgraph/backend/pkg/common"
)

// uniquenessConstraints covers every unique-keyed entity type. Without
// these the MERGE-based upserts cannot guarantee deduplication.
var uniquenessConstraints = []string{
	`CREATE CONSTRAINT incident_id_unique IF NOT EXISTS FOR (i:Incident) REQUIRE i.id IS UNIQUE`,
	`CREATE CONSTRAINT incident_key_unique IF NOT EXISTS FOR (i:Incident) REQUIRE i.key IS UNIQUE`,
	`CREATE CONSTRAINT product_id_unique IF NOT EXISTS FOR (p:Product) REQUIRE p.id IS UNIQUE`,
	`CREATE CONSTRAINT category_id_unique IF NOT EXISTS FOR (c:Category) REQUIRE c.id IS UNIQUE`,
	`CREATE CONSTRAINT person_account_unique IF NOT EXISTS FOR (per:Person) REQUIRE per.account_id IS UNIQUE`,
	`CREATE CONSTRAINT component_id_unique IF NOT EXISTS FOR (c:Component) REQUIRE c.id IS UNIQUE`,
	`CREATE CONSTRAINT label_id_unique IF NOT EXISTS FOR (l:Label) REQUIRE l.id IS UNIQUE`,
	`CREATE CONSTRAINT channel_id_unique IF NOT EXISTS FOR (ch:CommChannel) REQUIRE ch.id IS UNIQUE`,
	`CREATE CONSTRAINT passage_id_unique IF NOT EXISTS FOR (pas:Passage) REQUIRE pas.id IS UNIQUE`,
}

// EnsureSchema declares the uniqueness constraints for all entity types.
// Safe to call repeatedly; a failure here is fatal for the run because
// ingestion cannot guarantee dedup without the constraints in place.
func (s *GraphDBStorage) EnsureSchema(ctx context.Context) error {
	session := s.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, constraint := range uniquenessConstraints {
			res, err := tx.Run(ctx, constraint, nil)
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return common.ConstraintErrorf("declare uniqueness constraints: %v", err)
	}
	return nil
}
