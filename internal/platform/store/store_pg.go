package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// queryable abstracts pgxpool.Pool and pgx.Tx so the store works inside and
// outside transactions.
type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PGStore implements Store on top of a single Postgres table with a JSONB
// payload column.
type PGStore struct {
	db queryable
}

// NewPGStore creates a Postgres-backed document store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{db: pool}
}

func (s *PGStore) Create(ctx context.Context, collection string, id uuid.UUID, doc interface{}) (*Record, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	query := `
		INSERT INTO document (collection, id, doc)
		VALUES ($1, $2, $3)
		RETURNING collection, id, doc, created_at, updated_at`

	rec := &Record{}
	err = s.db.QueryRow(ctx, query, collection, id, payload).Scan(
		&rec.Collection, &rec.ID, &rec.Data, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, &TransportError{Op: "create " + collection, Err: err}
	}

	return rec, nil
}

func (s *PGStore) Get(ctx context.Context, collection string, id uuid.UUID) (*Record, error) {
	query := `
		SELECT collection, id, doc, created_at, updated_at
		FROM document
		WHERE collection = $1 AND id = $2`

	rec := &Record{}
	err := s.db.QueryRow(ctx, query, collection, id).Scan(
		&rec.Collection, &rec.ID, &rec.Data, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &TransportError{Op: "get " + collection, Err: err}
	}

	return rec, nil
}

func (s *PGStore) List(ctx context.Context, collection string, opts ListOptions) (*ListResult, error) {
	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM document WHERE collection = $1`, collection,
	).Scan(&total)
	if err != nil {
		return nil, &TransportError{Op: "count " + collection, Err: err}
	}

	order := "ASC"
	if opts.OrderByCreatedDesc {
		order = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT collection, id, doc, created_at, updated_at
		FROM document
		WHERE collection = $1
		ORDER BY created_at %s, id %s`, order, order)

	args := []interface{}{collection}
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, opts.Offset)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &TransportError{Op: "list " + collection, Err: err}
	}
	defer rows.Close()

	var docs []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(&rec.Collection, &rec.ID, &rec.Data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, &TransportError{Op: "scan " + collection, Err: err}
		}
		docs = append(docs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &TransportError{Op: "iterate " + collection, Err: err}
	}

	return &ListResult{Documents: docs, Total: total}, nil
}

func (s *PGStore) Update(ctx context.Context, collection string, id uuid.UUID, patch interface{}) (*Record, error) {
	payload, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}

	// Shallow merge: top-level keys in the patch replace the stored values.
	query := `
		UPDATE document
		SET doc = doc || $3, updated_at = NOW()
		WHERE collection = $1 AND id = $2
		RETURNING collection, id, doc, created_at, updated_at`

	rec := &Record{}
	err = s.db.QueryRow(ctx, query, collection, id, payload).Scan(
		&rec.Collection, &rec.ID, &rec.Data, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &TransportError{Op: "update " + collection, Err: err}
	}

	return rec, nil
}
