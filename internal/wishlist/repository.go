// internal/wishlist/repository.go
package wishlist

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("wishlist item not found")
	ErrDuplicate = errors.New("book already in wishlist")
)

type Repository interface {
	Add(ctx context.Context, item *Item) error
	// Remove deletes the (user, book) pair and returns the removed item.
	Remove(ctx context.Context, userID, bookID uuid.UUID) (*Item, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Item, error)
	Contains(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
}
