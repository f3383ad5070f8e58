package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for patients.
type Repository interface {
	Create(ctx context.Context, p *Patient) (*Patient, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// FindByUser returns the most recently registered patient for the given
	// user, or nil when the user has not registered yet.
	FindByUser(ctx context.Context, userID uuid.UUID) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
