// internal/cart/repository.go
package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("cart item not found")

type Repository interface {
	// Add inserts item, or bumps the quantity of the existing line for the
	// same (user, book, type). It returns the stored line.
	Add(ctx context.Context, item *Item) (*Item, error)
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*Item, error)
}
