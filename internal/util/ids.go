package util

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewJobID returns a short random identifier for ingest jobs and
// request correlation.
func NewJobID() (string, error) {
	id, err := gonanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 16)
	if err != nil {
		return "", fmt.Errorf("generate job id: %w", err)
	}
	return id, nil
}
