package user

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/intake/intake/internal/platform/validate"
)

type Service struct {
	users Repository
}

func NewService(users Repository) *Service {
	return &Service{users: users}
}

// Create validates the input and creates a user. If a user with the same
// email already exists, that user is returned instead of an error so a
// returning patient can re-enter the intake flow.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, bool, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	err := validate.New().
		Required("name", in.Name).
		MaxLen("name", in.Name, 200).
		Required("email", in.Email).
		Email("email", in.Email).
		Required("phone", in.Phone).
		Phone("phone", in.Phone).
		Err()
	if err != nil {
		return nil, false, err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	u, err := s.users.Create(ctx, &User{
		Name:  in.Name,
		Email: in.Email,
		Phone: in.Phone,
	})
	if err != nil {
		return nil, false, err
	}
	return u, false, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}
