// internal/catalog/service.go
package catalog

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service defines the interface for the catalog service.
type Service interface {
	AddBook(ctx context.Context, ownerID uuid.UUID, in NewBook) (*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	ListBooks(ctx context.Context, f Filter) ([]*Book, error)
	ListOwnerBooks(ctx context.Context, ownerID uuid.UUID) ([]*Book, error)
	UpdateBook(ctx context.Context, id, userID uuid.UUID, update BookUpdate) (*Book, error)
	DeleteBook(ctx context.Context, id, userID uuid.UUID) error
	Search(ctx context.Context, q string) ([]*Book, error)
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int, error)
	MarkForDonation(ctx context.Context, id uuid.UUID) (*Book, error)
	UploadCover(ctx context.Context, userID uuid.UUID, filename string, body io.Reader) (string, error)
}
