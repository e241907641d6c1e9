// internal/chaos/sandbox.go
package chaos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"booknest/internal/catalog"
	"booknest/internal/notification"
	"booknest/internal/purchase"
	"booknest/internal/realtime"
	"booknest/pkg/eventstore"
)

// Sandbox is an in-memory slice of the marketplace, one seller and one
// listing, with fault injection on the book and order stores.
type Sandbox struct {
	Books       catalog.Service
	Purchases   purchase.Service
	BookFaults  *Faults
	OrderFaults *Faults

	SellerID uuid.UUID
	BookID   uuid.UUID
	Stock    int
}

func NewSandbox(ctx context.Context, stock int, log *zap.SugaredLogger) (*Sandbox, error) {
	sb := &Sandbox{
		BookFaults:  &Faults{},
		OrderFaults: &Faults{},
		SellerID:    uuid.New(),
		Stock:       stock,
	}

	books := catalog.NewService(WrapBooks(catalog.NewMemoryRepository(), sb.BookFaults), nil, log.Named("catalog"))
	notes := notification.NewService(notification.NewMemoryRepository(), realtime.Discard, log.Named("notification"))
	sb.Books = books
	sb.Purchases = purchase.NewService(
		WrapPurchases(purchase.NewMemoryRepository(), sb.OrderFaults),
		books, notes, realtime.Discard, eventstore.NewMemoryStore(), log.Named("purchase"),
	)

	b, err := books.AddBook(ctx, sb.SellerID, catalog.NewBook{
		Title:         "The Left Hand of Darkness",
		Author:        "Ursula K. Le Guin",
		BookType:      catalog.TypeBuy,
		PriceBuy:      11,
		StockQuantity: stock,
	})
	if err != nil {
		return nil, fmt.Errorf("seed listing: %w", err)
	}
	sb.BookID = b.ID
	return sb, nil
}

// stockConsistency counts listings whose available quantity left [0, stock].
func (sb *Sandbox) stockConsistency() Probe {
	return Probe{
		Name: "stock_consistency",
		Query: func(ctx context.Context) (float64, error) {
			b, err := sb.Books.GetBook(ctx, sb.BookID)
			if err != nil {
				return 0, err
			}
			if b.AvailableQuantity < 0 || b.AvailableQuantity > b.StockQuantity {
				return 1, nil
			}
			return 0, nil
		},
		Threshold: Threshold{Operator: "==", Value: 0},
	}
}

// reservationLeak is the number of copies neither available nor held by an
// open order.
func (sb *Sandbox) reservationLeak() Probe {
	return Probe{
		Name: "reservation_leak",
		Query: func(ctx context.Context) (float64, error) {
			b, err := sb.Books.GetBook(ctx, sb.BookID)
			if err != nil {
				return 0, err
			}
			orders, err := sb.Purchases.ListSellerPurchases(ctx, sb.SellerID)
			if err != nil {
				return 0, err
			}
			reserved := 0
			for _, o := range orders {
				if o.Status != purchase.StatusCancelled {
					reserved += o.Quantity
				}
			}
			leak := b.StockQuantity - b.AvailableQuantity - reserved
			if leak < 0 {
				leak = -leak
			}
			return float64(leak), nil
		},
		Threshold: Threshold{Operator: "==", Value: 0},
	}
}

func (sb *Sandbox) buyOne(ctx context.Context) error {
	_, err := sb.Purchases.CreatePurchase(ctx, purchase.Order{
		BookID:   sb.BookID,
		BuyerID:  uuid.New(),
		Quantity: 1,
	})
	return err
}
