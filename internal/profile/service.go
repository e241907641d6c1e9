// internal/profile/service.go
package profile

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the profile service.
type Service interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update Update) (*Profile, error)
}
