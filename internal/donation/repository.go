// internal/donation/repository.go
package donation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("donation not found")
	ErrStatusChanged = errors.New("donation status changed")
)

// Repository persists donations.
type Repository interface {
	Create(ctx context.Context, d *Donation) error
	Get(ctx context.Context, id uuid.UUID) (*Donation, error)
	ListByStatus(ctx context.Context, status Status) ([]*Donation, error)
	ListByDonor(ctx context.Context, donorID uuid.UUID) ([]*Donation, error)
	// Transition stores d's status, recipient and dates, bumping the
	// version, only if the stored status is still from.
	Transition(ctx context.Context, d *Donation, from Status) error
}
