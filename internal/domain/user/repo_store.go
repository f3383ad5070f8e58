package user

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/intake/intake/internal/platform/store"
)

// userDoc is the JSON shape persisted in the document store.
type userDoc struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// StoreRepository implements Repository on top of the document store.
type StoreRepository struct {
	store      store.Store
	collection string
}

// NewStoreRepository creates a store-backed user repository.
func NewStoreRepository(s store.Store, collection string) *StoreRepository {
	return &StoreRepository{store: s, collection: collection}
}

func (r *StoreRepository) Create(ctx context.Context, u *User) (*User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	rec, err := r.store.Create(ctx, r.collection, u.ID, userDoc{
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
	})
	if err != nil {
		return nil, err
	}

	return fromRecord(rec)
}

func (r *StoreRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	rec, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, err
	}
	return fromRecord(rec)
}

func (r *StoreRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	// The document store has no secondary indexes; scan the collection.
	// User volume is small enough that this stays cheap.
	res, err := r.store.List(ctx, r.collection, store.ListOptions{})
	if err != nil {
		return nil, err
	}

	target := strings.ToLower(email)
	for _, rec := range res.Documents {
		u, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		if strings.ToLower(u.Email) == target {
			return u, nil
		}
	}
	return nil, nil
}

func (r *StoreRepository) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	res, err := r.store.List(ctx, r.collection, store.ListOptions{
		OrderByCreatedDesc: true,
		Limit:              limit,
		Offset:             offset,
	})
	if err != nil {
		return nil, 0, err
	}

	users := make([]*User, 0, len(res.Documents))
	for _, rec := range res.Documents {
		u, err := fromRecord(rec)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, res.Total, nil
}

func fromRecord(rec *store.Record) (*User, error) {
	var doc userDoc
	if err := rec.Decode(&doc); err != nil {
		return nil, err
	}
	return &User{
		ID:        rec.ID,
		Name:      doc.Name,
		Email:     doc.Email,
		Phone:     doc.Phone,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}
