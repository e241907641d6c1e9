// internal/purchase/repository.go
package purchase

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("purchase not found")
	// ErrAlreadySettled means the payment status was no longer pending.
	ErrAlreadySettled = errors.New("payment already settled")
)

// Repository persists purchases.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	Get(ctx context.Context, id uuid.UUID) (*Purchase, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*Purchase, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*Purchase, error)
	// Settle stores p's payment status, order status and transaction id,
	// bumping the version, only while the stored payment is still pending.
	Settle(ctx context.Context, p *Purchase) error
}
