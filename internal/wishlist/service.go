// internal/wishlist/service.go
package wishlist

import (
	"context"

	"github.com/google/uuid"

	"booknest/internal/catalog"
)

// Service defines the interface for the wishlist service.
type Service interface {
	Add(ctx context.Context, userID, bookID uuid.UUID) (*Item, error)
	Remove(ctx context.Context, userID, bookID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*Item, error)
	Contains(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
}

type Books interface {
	GetBook(ctx context.Context, id uuid.UUID) (*catalog.Book, error)
}
