// internal/cart/service.go
package cart

import (
	"context"

	"github.com/google/uuid"

	"booknest/internal/catalog"
)

// Service defines the interface for the cart service.
type Service interface {
	Add(ctx context.Context, userID, bookID uuid.UUID, itemType ItemType) (*Item, error)
	// UpdateQuantity sets a line's quantity; zero or less removes the line.
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Item, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*Item, error)
}

type Books interface {
	GetBook(ctx context.Context, id uuid.UUID) (*catalog.Book, error)
}
