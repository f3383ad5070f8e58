package appointment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// ListRecent returns appointments newest-first along with the total
	// count in the collection.
	ListRecent(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	// Update applies the patch to the stored appointment and returns the
	// updated record.
	Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*Appointment, error)
}
