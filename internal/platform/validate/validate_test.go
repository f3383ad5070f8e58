package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestChecker_Required(t *testing.T) {
	err := New().Required("name", "").Err()
	if err == nil {
		t.Fatal("expected error for empty field")
	}

	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	if fe["name"] != "is required" {
		t.Errorf("unexpected message: %s", fe["name"])
	}

	if err := New().Required("name", "John").Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := New().Required("name", "   ").Err(); err == nil {
		t.Error("expected error for whitespace-only value")
	}
}

func TestChecker_Email(t *testing.T) {
	if err := New().Email("email", "john@example.com").Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := New().Email("email", "not-an-email").Err(); err == nil {
		t.Error("expected error for invalid email")
	}
	// Empty values are left to Required.
	if err := New().Email("email", "").Err(); err != nil {
		t.Errorf("unexpected error for empty value: %v", err)
	}
}

func TestChecker_Phone(t *testing.T) {
	for _, valid := range []string{"+15551234567", "15551234567", "+442071838750"} {
		if err := New().Phone("phone", valid).Err(); err != nil {
			t.Errorf("unexpected error for %s: %v", valid, err)
		}
	}
	for _, invalid := range []string{"123", "abc", "+1 555 123"} {
		if err := New().Phone("phone", invalid).Err(); err == nil {
			t.Errorf("expected error for %s", invalid)
		}
	}
}

func TestChecker_OneOf(t *testing.T) {
	if err := New().OneOf("gender", "male", "male", "female", "other").Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := New().OneOf("gender", "unknown", "male", "female", "other").Err(); err == nil {
		t.Error("expected error for disallowed value")
	}
}

func TestChecker_Date(t *testing.T) {
	if err := New().Date("birth_date", "1990-05-14", "2006-01-02").Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := New().Date("birth_date", "14/05/1990", "2006-01-02").Err(); err == nil {
		t.Error("expected error for wrong layout")
	}
}

func TestChecker_True(t *testing.T) {
	err := New().True("treatment_consent", false, "consent is required").Err()
	if err == nil {
		t.Fatal("expected error for false flag")
	}
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	if fe["treatment_consent"] != "consent is required" {
		t.Errorf("unexpected message: %s", fe["treatment_consent"])
	}
}

func TestChecker_AccumulatesMultipleErrors(t *testing.T) {
	err := New().
		Required("name", "").
		Email("email", "bad").
		Phone("phone", "xyz").
		Err()
	if err == nil {
		t.Fatal("expected error")
	}

	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	if len(fe) != 3 {
		t.Errorf("expected 3 field errors, got %d", len(fe))
	}
}

func TestChecker_FirstErrorPerFieldWins(t *testing.T) {
	err := New().
		Required("email", "").
		MinLen("email", "", 5).
		Err()

	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	if fe["email"] != "is required" {
		t.Errorf("expected first error to stick, got %s", fe["email"])
	}
}

func TestFieldErrors_ErrorMessage(t *testing.T) {
	fe := FieldErrors{"b": "is required", "a": "is required"}
	msg := fe.Error()
	if !strings.HasPrefix(msg, "validation failed: ") {
		t.Errorf("unexpected prefix: %s", msg)
	}
	// Sorted output keeps messages deterministic.
	if strings.Index(msg, "a:") > strings.Index(msg, "b:") {
		t.Errorf("expected sorted fields: %s", msg)
	}
}
