// internal/profile/repository.go
package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("profile not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Repository persists profiles.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	Get(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
}
