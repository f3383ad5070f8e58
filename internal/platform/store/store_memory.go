package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation used in tests and local
// development. Documents are deep-copied on the way in and out.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[uuid.UUID]*Record

	// now is swappable in tests for deterministic timestamps.
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[uuid.UUID]*Record),
		now:         time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, collection string, id uuid.UUID, doc interface{}) (*Record, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[uuid.UUID]*Record)
		s.collections[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return nil, &TransportError{Op: "create " + collection, Err: fmt.Errorf("duplicate id %s", id)}
	}

	now := s.now().UTC()
	rec := &Record{
		ID:         id,
		Collection: collection,
		Data:       payload,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	coll[id] = rec

	return copyRecord(rec), nil
}

func (s *MemoryStore) Get(ctx context.Context, collection string, id uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

func (s *MemoryStore) List(ctx context.Context, collection string, opts ListOptions) (*ListResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[collection]
	docs := make([]*Record, 0, len(coll))
	for _, rec := range coll {
		docs = append(docs, copyRecord(rec))
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			if opts.OrderByCreatedDesc {
				return docs[i].ID.String() > docs[j].ID.String()
			}
			return docs[i].ID.String() < docs[j].ID.String()
		}
		if opts.OrderByCreatedDesc {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})

	total := len(docs)
	if opts.Offset > 0 {
		if opts.Offset >= len(docs) {
			docs = nil
		} else {
			docs = docs[opts.Offset:]
		}
	}
	if opts.Limit > 0 && len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}

	return &ListResult{Documents: docs, Total: total}, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection string, id uuid.UUID, patch interface{}) (*Record, error) {
	payload, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}

	var existing map[string]json.RawMessage
	if err := json.Unmarshal(rec.Data, &existing); err != nil {
		return nil, fmt.Errorf("unmarshal stored document: %w", err)
	}
	var changes map[string]json.RawMessage
	if err := json.Unmarshal(payload, &changes); err != nil {
		return nil, fmt.Errorf("unmarshal patch: %w", err)
	}
	for k, v := range changes {
		existing[k] = v
	}
	merged, err := json.Marshal(existing)
	if err != nil {
		return nil, fmt.Errorf("marshal merged document: %w", err)
	}

	rec.Data = merged
	rec.UpdatedAt = s.now().UTC()

	return copyRecord(rec), nil
}

func copyRecord(rec *Record) *Record {
	data := make(json.RawMessage, len(rec.Data))
	copy(data, rec.Data)
	out := *rec
	out.Data = data
	return &out
}
