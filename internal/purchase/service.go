// internal/purchase/service.go
package purchase

import (
	"context"

	"github.com/google/uuid"

	"booknest/internal/catalog"
	"booknest/internal/notification"
)

// Service defines the interface for the purchase service.
type Service interface {
	CreatePurchase(ctx context.Context, order Order) (*Purchase, error)
	UpdatePaymentStatus(ctx context.Context, purchaseID uuid.UUID, status PaymentStatus, transactionID string) (*Purchase, error)
	GetPurchase(ctx context.Context, purchaseID, userID uuid.UUID) (*Purchase, error)
	ListBuyerPurchases(ctx context.Context, userID uuid.UUID) ([]*Purchase, error)
	ListSellerPurchases(ctx context.Context, userID uuid.UUID) ([]*Purchase, error)
}

// Books is the part of the catalog the purchase workflow uses.
type Books interface {
	GetBook(ctx context.Context, id uuid.UUID) (*catalog.Book, error)
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int, error)
}

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, note notification.Note)
}
