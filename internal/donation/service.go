// internal/donation/service.go
package donation

import (
	"context"

	"github.com/google/uuid"

	"booknest/internal/catalog"
	"booknest/internal/notification"
	"booknest/pkg/eventstore"
)

// Service defines the interface for the donation service.
type Service interface {
	CreateDonation(ctx context.Context, bookID, donorID uuid.UUID, donationType Type, notes string) (*Donation, error)
	ClaimDonation(ctx context.Context, donationID, recipientID uuid.UUID) (*Donation, error)
	MarkDonationDelivered(ctx context.Context, donationID, donorID uuid.UUID) (*Donation, error)
	ListAvailableDonations(ctx context.Context) ([]*Donation, error)
	ListDonorDonations(ctx context.Context, donorID uuid.UUID) ([]*Donation, error)
	History(ctx context.Context, donationID uuid.UUID) ([]eventstore.Event, error)
}

// Books is the part of the catalog the donation workflow uses.
type Books interface {
	GetBook(ctx context.Context, id uuid.UUID) (*catalog.Book, error)
	MarkForDonation(ctx context.Context, id uuid.UUID) (*catalog.Book, error)
}

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, note notification.Note)
}
