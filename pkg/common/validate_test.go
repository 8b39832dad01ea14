package common

import (
	"errors"
	"testing"
)

func validRecord() *IncidentRecord {
	return &IncidentRecord{
		ID:       "i-1",
		Key:      "INC-1",
		Severity: "Sev1",
		Product:  &EntityRef{ID: "p-1", Name: "Product-1"},
		Category: &EntityRef{ID: "c-1", Name: "Category-1"},
		Reporter: &PersonRef{AccountID: "a-1", DisplayName: "Alice"},
		Assignee: &PersonRef{AccountID: "a-2", DisplayName: "Bob"},
		Passages: []PassageRecord{
			{ID: "pas-1", Text: "root cause was a memory leak"},
		},
	}
}

func TestValidateRecord_Valid(t *testing.T) {
	if err := ValidateRecord(validRecord()); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}
}

func TestValidateRecord_MissingReporter(t *testing.T) {
	record := validRecord()
	record.Reporter = nil

	err := ValidateRecord(record)
	if err == nil {
		t.Fatal("expected error for missing reporter")
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidateRecord_MissingKey(t *testing.T) {
	record := validRecord()
	record.Key = ""

	if err := ValidateRecord(record); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidateRecord_PassageWithoutID(t *testing.T) {
	record := validRecord()
	record.Passages = append(record.Passages, PassageRecord{Text: "no id"})

	if err := ValidateRecord(record); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidateRecord_OptionalFieldsAbsent(t *testing.T) {
	record := validRecord()
	record.Channel = nil
	record.Clones = ""
	record.Components = nil
	record.Labels = nil

	if err := ValidateRecord(record); err != nil {
		t.Fatalf("optional fields must not fail validation: %v", err)
	}
}

func TestValidateRecord_Nil(t *testing.T) {
	if err := ValidateRecord(nil); !errors.Is(err, ErrValidation) {
		t.Fatal("expected ErrValidation for nil record")
	}
}
