package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := uuid.New()

	created, err := s.Create(ctx, "patients", id, map[string]string{"name": "John Doe"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != id {
		t.Errorf("expected id %s, got %s", id, created.ID)
	}
	if created.Collection != "patients" {
		t.Errorf("expected collection patients, got %s", created.Collection)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got, err := s.Get(ctx, "patients", id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc map[string]string
	if err := got.Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["name"] != "John Doe" {
		t.Errorf("expected name John Doe, got %s", doc["name"])
	}
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "patients", uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_CreateDuplicateID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := uuid.New()

	if _, err := s.Create(ctx, "users", id, map[string]string{"a": "1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := s.Create(ctx, "users", id, map[string]string{"a": "2"})
	if err == nil {
		t.Fatal("expected error for duplicate id")
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Errorf("expected TransportError, got %T", err)
	}
}

func TestMemoryStore_UpdateMergesTopLevelKeys(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := uuid.New()

	_, err := s.Create(ctx, "appointments", id, map[string]string{
		"status":    "pending",
		"physician": "Dr. Green",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := s.Update(ctx, "appointments", id, map[string]string{"status": "scheduled"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc map[string]string
	if err := updated.Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["status"] != "scheduled" {
		t.Errorf("expected status scheduled, got %s", doc["status"])
	}
	if doc["physician"] != "Dr. Green" {
		t.Errorf("expected physician preserved, got %s", doc["physician"])
	}
}

func TestMemoryStore_UpdateNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Update(context.Background(), "appointments", uuid.New(), map[string]string{"status": "scheduled"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ListOrderAndPagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ids := make([]uuid.UUID, 3)
	for i := range ids {
		tick := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return tick }
		ids[i] = uuid.New()
		if _, err := s.Create(ctx, "appointments", ids[i], map[string]int{"n": i}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	res, err := s.List(ctx, "appointments", ListOptions{OrderByCreatedDesc: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("expected total 3, got %d", res.Total)
	}
	if len(res.Documents) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(res.Documents))
	}
	if res.Documents[0].ID != ids[2] {
		t.Errorf("expected newest document first, got %s", res.Documents[0].ID)
	}

	res, err = s.List(ctx, "appointments", ListOptions{OrderByCreatedDesc: true, Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("expected total to count full collection, got %d", res.Total)
	}
	if len(res.Documents) != 1 || res.Documents[0].ID != ids[1] {
		t.Errorf("expected the middle document in the page")
	}
}

func TestMemoryStore_ListEmptyCollection(t *testing.T) {
	s := NewMemoryStore()

	res, err := s.List(context.Background(), "nothing", ListOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Documents) != 0 {
		t.Errorf("expected empty result, got total=%d len=%d", res.Total, len(res.Documents))
	}
}

func TestMemoryStore_CollectionsAreIsolated(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := uuid.New()

	if _, err := s.Create(ctx, "patients", id, map[string]string{"name": "A"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := s.Get(ctx, "users", id)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from other collection, got %v", err)
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &TransportError{Op: "get patients", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find wrapped error")
	}
}
