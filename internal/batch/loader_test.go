package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/opsgraph/backend/pkg/common"
)

const sampleBatch = `[
	{
		"id": "10001",
		"key": "INC-1",
		"summary": "Gateway returned 502s",
		"product": {"id": "prod-1", "name": "Gateway"},
		"category": {"id": "cat-1", "name": "Outage"},
		"reporter": {"account_id": "acc-1"},
		"assignee": {"account_id": "acc-2"},
		"passages": [{"id": "p-1", "text": "root cause was a memory leak"}]
	}
]`

func TestLoadRecordsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	if err := os.WriteFile(path, []byte(sampleBatch), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	records, err := LoadRecords(context.Background(), nil, path)
	if err != nil {
		t.Fatalf("LoadRecords() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Key != "INC-1" {
		t.Errorf("key = %q, want INC-1", records[0].Key)
	}
	if len(records[0].Passages) != 1 || records[0].Passages[0].ID != "p-1" {
		t.Errorf("passages = %+v, want one passage p-1", records[0].Passages)
	}
}

func TestLoadRecordsEmptySource(t *testing.T) {
	_, err := LoadRecords(context.Background(), nil, "")
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("LoadRecords() error = %v, want ErrValidation", err)
	}
}

func TestLoadRecordsS3WithoutClient(t *testing.T) {
	_, err := LoadRecords(context.Background(), nil, "s3://batches/today.json")
	if !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("LoadRecords() error = %v, want ErrConfiguration", err)
	}
}

func TestParseRecordsWrappedObject(t *testing.T) {
	data := []byte(`{"incidents": ` + sampleBatch + `}`)

	records, err := ParseRecords(data)
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
}

func TestParseRecordsInvalidJSON(t *testing.T) {
	_, err := ParseRecords([]byte("not json"))
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("ParseRecords() error = %v, want ErrValidation", err)
	}
}
