// internal/rental/repository.go
package rental

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("rental not found")
	// ErrStatusChanged means the stored status no longer matched the expected
	// prior status when a transition was attempted.
	ErrStatusChanged = errors.New("rental status changed")
)

// Repository persists rentals.
type Repository interface {
	Create(ctx context.Context, r *Rental) error
	Get(ctx context.Context, id uuid.UUID) (*Rental, error)
	ListByRenter(ctx context.Context, renterID uuid.UUID) ([]*Rental, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Rental, error)
	// Transition stores r's status, return date, late fees and updated_at,
	// bumping the version, only if the stored status is still from.
	Transition(ctx context.Context, r *Rental, from Status) error
}
