package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/opsgraph/backend/internal/storage"
	"github.com/opsgraph/backend/pkg/common"
)

// LoadRecords reads an incident batch from the given source. Sources with
// an s3:// prefix are fetched from object storage; everything else is
// treated as a local file path. The batch is a JSON array of incident
// records.
func LoadRecords(ctx context.Context, s3Client *awss3.Client, source string) ([]*common.IncidentRecord, error) {
	if source == "" {
		return nil, common.ValidationErrorf("batch source is empty")
	}

	var data []byte
	var err error
	if key, ok := strings.CutPrefix(source, "s3://"); ok {
		if s3Client == nil {
			return nil, common.ConfigurationErrorf("batch source %s requires an S3 client", source)
		}
		data, err = storage.GetFile(ctx, s3Client, key)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load batch from %s: %w", source, err)
	}

	return ParseRecords(data)
}

// ParseRecords decodes a JSON incident batch. Both a bare array and an
// object with an "incidents" field are accepted.
func ParseRecords(data []byte) ([]*common.IncidentRecord, error) {
	var records []*common.IncidentRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Incidents []*common.IncidentRecord `json:"incidents"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, common.ValidationErrorf("batch is not a JSON incident array: %s", err)
	}
	if wrapped.Incidents == nil {
		return nil, common.ValidationErrorf("batch has no incidents field")
	}
	return wrapped.Incidents, nil
}
