package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByEmail returns the user with the given email, or nil when no
	// such user exists.
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
}
