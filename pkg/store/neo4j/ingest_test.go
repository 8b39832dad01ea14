package neo4j

import (
	"strings"
	"testing"

	"github.com/opsgraph/backend/pkg/common"
)

func TestRecordToRow(t *testing.T) {
	record := &common.IncidentRecord{
		ID:       "10001",
		Key:      "INC-1",
		Status:   "Resolved",
		Summary:  "Gateway returned 502s",
		Product:  &common.EntityRef{ID: "prod-1", Name: "Gateway"},
		Category: &common.EntityRef{ID: "cat-1", Name: "Outage"},
		Reporter: &common.PersonRef{AccountID: "acc-1", DisplayName: "R"},
		Assignee: &common.PersonRef{AccountID: "acc-2"},
		Components: []common.EntityRef{
			{ID: "comp-1", Name: "edge-proxy"},
		},
		Passages: []common.PassageRecord{
			{ID: "p-1", SourceType: "comment", Text: "root cause was a memory leak"},
		},
	}

	row := recordToRow(record)

	if row["key"] != "INC-1" {
		t.Errorf("key = %v, want INC-1", row["key"])
	}
	product, ok := row["product"].(map[string]any)
	if !ok || product["id"] != "prod-1" {
		t.Errorf("product = %v, want map with id prod-1", row["product"])
	}
	reporter, ok := row["reporter"].(map[string]any)
	if !ok || reporter["account_id"] != "acc-1" {
		t.Errorf("reporter = %v, want map with account_id acc-1", row["reporter"])
	}

	// absent channel must be an explicit nil so the FOREACH guard skips it
	if channel, present := row["channel"]; !present || channel != nil {
		t.Errorf("channel = %v, want explicit nil", row["channel"])
	}

	components, ok := row["components"].([]map[string]any)
	if !ok || len(components) != 1 || components[0]["id"] != "comp-1" {
		t.Errorf("components = %v, want one row comp-1", row["components"])
	}
	labels, ok := row["labels"].([]map[string]any)
	if !ok || len(labels) != 0 {
		t.Errorf("labels = %v, want empty list", row["labels"])
	}
	passages, ok := row["passages"].([]map[string]any)
	if !ok || len(passages) != 1 || passages[0]["text"] != "root cause was a memory leak" {
		t.Errorf("passages = %v, want one passage", row["passages"])
	}
}

func TestRecordToRowWithChannel(t *testing.T) {
	record := &common.IncidentRecord{
		ID:       "10002",
		Key:      "INC-2",
		Product:  &common.EntityRef{ID: "prod-1"},
		Category: &common.EntityRef{ID: "cat-1"},
		Reporter: &common.PersonRef{AccountID: "acc-1"},
		Assignee: &common.PersonRef{AccountID: "acc-1"},
		Channel:  &common.ChannelRef{ID: "chan-1", URL: "https://chat.example/chan-1"},
	}

	row := recordToRow(record)

	channel, ok := row["channel"].(map[string]any)
	if !ok || channel["id"] != "chan-1" {
		t.Errorf("channel = %v, want map with id chan-1", row["channel"])
	}
}

func TestUniquenessConstraintsCoverEntityTypes(t *testing.T) {
	wanted := []string{":Incident", ":Product", ":Category", ":Person", ":Component", ":Label", ":CommChannel", ":Passage"}
	for _, label := range wanted {
		found := false
		for _, constraint := range uniquenessConstraints {
			if strings.Contains(constraint, label+")") {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no uniqueness constraint for %s", label)
		}
	}
}
