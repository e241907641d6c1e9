// internal/rental/service.go
package rental

import (
	"context"

	"github.com/google/uuid"

	"booknest/internal/catalog"
	"booknest/internal/notification"
	"booknest/pkg/eventstore"
)

// Service defines the interface for the rental service.
type Service interface {
	RequestRental(ctx context.Context, req Request) (*Rental, error)
	ApproveRental(ctx context.Context, rentalID, ownerID uuid.UUID) (*Rental, error)
	ReturnRental(ctx context.Context, rentalID, renterID uuid.UUID) (*Rental, error)
	GetRental(ctx context.Context, rentalID, userID uuid.UUID) (*Rental, error)
	ListRenterRentals(ctx context.Context, userID uuid.UUID) ([]*Rental, error)
	ListOwnerRentals(ctx context.Context, userID uuid.UUID) ([]*Rental, error)
	History(ctx context.Context, rentalID uuid.UUID) ([]eventstore.Event, error)
}

// Books is the part of the catalog the rental workflow uses.
type Books interface {
	GetBook(ctx context.Context, id uuid.UUID) (*catalog.Book, error)
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int, error)
}

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, note notification.Note)
}
