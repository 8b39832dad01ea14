package common

import (
	"github.com/go-playground/validator"
)

var recordValidator = validator.New()

// ValidateRecord checks an incident record before any write. Records missing
// a required nested reference (product, category, reporter, assignee) or a
// required key are rejected with an ErrValidation-wrapped error.
func ValidateRecord(record *IncidentRecord) error {
	if record == nil {
		return ValidationErrorf("record is nil")
	}
	if err := recordValidator.Struct(record); err != nil {
		return ValidationErrorf("record %q: %v", record.Key, err)
	}
	return nil
}
