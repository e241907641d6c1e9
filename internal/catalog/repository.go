// internal/catalog/repository.go
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("book not found")
	// ErrInsufficientQuantity is returned when a decrement would take
	// available_quantity below zero.
	ErrInsufficientQuantity = errors.New("insufficient quantity")
)

// Repository persists books.
type Repository interface {
	Create(ctx context.Context, b *Book) error
	Get(ctx context.Context, id uuid.UUID) (*Book, error)
	List(ctx context.Context, f Filter) ([]*Book, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Book, error)
	Search(ctx context.Context, q string) ([]*Book, error)
	Save(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	// AdjustQuantity atomically adds delta to available_quantity and
	// returns the new value. A negative result is refused.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int, error)
}
