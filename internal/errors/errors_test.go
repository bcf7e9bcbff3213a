package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(NotFound("record not found")); got != KindNotFound {
		t.Fatalf("expected not_found, got %s", got)
	}
	if got := KindOf(Validation("organization party id is required")); got != KindValidation {
		t.Fatalf("expected validation, got %s", got)
	}
	if got := KindOf(stderrors.New("boom")); got != KindInternal {
		t.Fatalf("unclassified errors should map to internal, got %s", got)
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("close period: %w", NotFound("period %s not found", "FY2025"))
	if !IsNotFound(err) {
		t.Fatalf("expected wrapped error to stay not_found")
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Internal(cause)
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
}

func TestWithDetails(t *testing.T) {
	err := Validation("amount must be positive").WithDetails("field", "amount")
	if err.Details["field"] != "amount" {
		t.Fatalf("expected details to carry field name")
	}
}
