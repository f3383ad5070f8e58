// Package store provides a collection-oriented document store. Documents are
// schemaless JSON payloads keyed by collection name and UUID, with server-side
// created/updated timestamps. Two implementations exist: a Postgres-backed
// store used in production and an in-memory store used in tests.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a document does not exist in the requested
// collection.
var ErrNotFound = errors.New("document not found")

// TransportError wraps a failure to reach or use the backing database so
// callers can distinguish infrastructure faults from domain outcomes.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Record is a stored document together with its envelope metadata.
type Record struct {
	ID         uuid.UUID       `json:"id"`
	Collection string          `json:"collection"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Decode unmarshals the record payload into v.
func (r *Record) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode document %s/%s: %w", r.Collection, r.ID, err)
	}
	return nil
}

// ListOptions controls ordering and pagination of List.
type ListOptions struct {
	// OrderByCreatedDesc sorts newest-first when true, oldest-first otherwise.
	OrderByCreatedDesc bool
	// Limit caps the number of returned documents. Zero means no limit.
	Limit int
	// Offset skips that many documents from the start of the ordering.
	Offset int
}

// ListResult holds one page of documents plus the total count in the
// collection, so callers can aggregate over the full set.
type ListResult struct {
	Documents []*Record
	Total     int
}

// Store is the document persistence contract shared by the Postgres and
// in-memory implementations.
type Store interface {
	// Create inserts a new document and returns the stored record. The id
	// must not already exist in the collection.
	Create(ctx context.Context, collection string, id uuid.UUID, doc interface{}) (*Record, error)

	// Get fetches a single document. Returns ErrNotFound if absent.
	Get(ctx context.Context, collection string, id uuid.UUID) (*Record, error)

	// List returns documents from a collection per the given options, along
	// with the collection total.
	List(ctx context.Context, collection string, opts ListOptions) (*ListResult, error)

	// Update merges patch into the existing document and returns the updated
	// record. Top-level keys in patch overwrite the stored values. Returns
	// ErrNotFound if the document does not exist.
	Update(ctx context.Context, collection string, id uuid.UUID, patch interface{}) (*Record, error)
}
