package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/opsgraph/backend/pkg/common"
	"github.com/opsgraph/backend/pkg/store"
)

// upsertBatchQuery merges one batch of incident records. MERGE keys every
// node by its unique identifier, so re-running the same batch updates
// attributes in place and never duplicates nodes or edges. Optional
// sub-records (channel) and empty lists fall through the FOREACH guards.
const upsertBatchQuery = `
UNWIND $rows AS row

MERGE (i:Incident {id: row.id})
SET i.key = row.key,
    i.type = row.type,
    i.status = row.status,
    i.resolution = row.resolution,
    i.severity = row.severity,
    i.impact = row.impact,
    i.env_type = row.env_type,
    i.customer_env = row.customer_env,
    i.event_start = row.event_start,
    i.event_end = row.event_end,
    i.event_duration_ms = row.event_duration_ms,
    i.summary = row.summary,
    i.created = row.created,
    i.updated = row.updated,
    i.url = row.url

MERGE (p:Product {id: row.product.id})
SET p.name = row.product.name
MERGE (i)-[:HAS_PRODUCT]->(p)

MERGE (cat:Category {id: row.category.id})
SET cat.name = row.category.name
MERGE (i)-[:HAS_CATEGORY]->(cat)

MERGE (rep:Person {account_id: row.reporter.account_id})
SET rep.display_name = row.reporter.display_name,
    rep.email = row.reporter.email
MERGE (i)-[:REPORTED_BY]->(rep)

MERGE (asg:Person {account_id: row.assignee.account_id})
SET asg.display_name = row.assignee.display_name,
    asg.email = row.assignee.email
MERGE (i)-[:ASSIGNED_TO]->(asg)

FOREACH (ch IN CASE WHEN row.channel IS NOT NULL THEN [row.channel] ELSE [] END |
    MERGE (c:CommChannel {id: ch.id})
    SET c.url = ch.url
    MERGE (i)-[:HAS_CHANNEL]->(c)
)

FOREACH (comp IN row.components |
    MERGE (c:Component {id: comp.id})
    SET c.name = comp.name
    MERGE (i)-[:HAS_COMPONENT]->(c)
)

FOREACH (lbl IN row.labels |
    MERGE (l:Label {id: lbl.id})
    SET l.name = lbl.name
    MERGE (i)-[:HAS_LABEL]->(l)
)

FOREACH (pas IN row.passages |
    MERGE (p2:Passage {id: pas.id})
    SET p2.source_type = pas.source_type,
        p2.source_id = pas.source_id,
        p2.text = pas.text,
        p2.created = pas.created,
        p2.url = pas.url
    MERGE (p2)-[:FROM]->(i)
)
`

// UpsertIncidents merges the batch in a single write transaction. When the
// transaction fails nothing from this call is applied; records already
// committed by earlier calls stay in place.
func (s *GraphDBStorage) UpsertIncidents(ctx context.Context, records []*common.IncidentRecord) (store.UpsertResult, error) {
	if len(records) == 0 {
		return store.UpsertResult{}, nil
	}

	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, recordToRow(record))
	}

	session := s.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, upsertBatchQuery, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		counters := summary.Counters()
		return store.UpsertResult{
			NodesCreated:     int64(counters.NodesCreated()),
			RelationsCreated: int64(counters.RelationshipsCreated()),
			PropertiesSet:    int64(counters.PropertiesSet()),
		}, nil
	})
	if err != nil {
		return store.UpsertResult{}, fmt.Errorf("upsert incident batch: %w", err)
	}

	return result.(store.UpsertResult), nil
}

func recordToRow(record *common.IncidentRecord) map[string]any {
	row := map[string]any{
		"id":                record.ID,
		"key":               record.Key,
		"type":              record.Type,
		"status":            record.Status,
		"resolution":        record.Resolution,
		"severity":          record.Severity,
		"impact":            record.Impact,
		"env_type":          record.EnvType,
		"customer_env":      record.CustomerEnv,
		"event_start":       record.EventStart,
		"event_end":         record.EventEnd,
		"event_duration_ms": record.EventDurationMs,
		"summary":           record.Summary,
		"created":           record.Created,
		"updated":           record.Updated,
		"url":               record.URL,
		"product":           entityRefToMap(record.Product),
		"category":          entityRefToMap(record.Category),
		"reporter": map[string]any{
			"account_id":   record.Reporter.AccountID,
			"display_name": record.Reporter.DisplayName,
			"email":        record.Reporter.Email,
		},
		"assignee": map[string]any{
			"account_id":   record.Assignee.AccountID,
			"display_name": record.Assignee.DisplayName,
			"email":        record.Assignee.Email,
		},
	}

	components := make([]map[string]any, 0, len(record.Components))
	for _, c := range record.Components {
		components = append(components, map[string]any{"id": c.ID, "name": c.Name})
	}
	row["components"] = components

	labels := make([]map[string]any, 0, len(record.Labels))
	for _, l := range record.Labels {
		labels = append(labels, map[string]any{"id": l.ID, "name": l.Name})
	}
	row["labels"] = labels

	if record.Channel != nil {
		row["channel"] = map[string]any{"id": record.Channel.ID, "url": record.Channel.URL}
	} else {
		row["channel"] = nil
	}

	passages := make([]map[string]any, 0, len(record.Passages))
	for _, p := range record.Passages {
		passages = append(passages, map[string]any{
			"id":          p.ID,
			"source_type": p.SourceType,
			"source_id":   p.SourceID,
			"text":        p.Text,
			"created":     p.Created,
			"url":         p.URL,
		})
	}
	row["passages"] = passages

	return row
}

func entityRefToMap(ref *common.EntityRef) map[string]any {
	return map[string]any{"id": ref.ID, "name": ref.Name}
}
