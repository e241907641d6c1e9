// internal/purchase/domain.go
package purchase

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is reported by the payment provider.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Status is the order state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Purchase is an order for Quantity copies at PurchasePrice each. The price
// is a snapshot of the book's price_buy when ordered.
type Purchase struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	BookID          uuid.UUID     `db:"book_id" json:"book_id"`
	BuyerID         uuid.UUID     `db:"buyer_id" json:"buyer_id"`
	SellerID        uuid.UUID     `db:"seller_id" json:"seller_id"`
	PurchasePrice   float64       `db:"purchase_price" json:"purchase_price"`
	Quantity        int           `db:"quantity" json:"quantity"`
	PaymentStatus   PaymentStatus `db:"payment_status" json:"payment_status"`
	Status          Status        `db:"status" json:"status"`
	ShippingAddress string        `db:"shipping_address" json:"shipping_address,omitempty"`
	TransactionID   string        `db:"transaction_id" json:"transaction_id,omitempty"`
	Version         int           `db:"version" json:"version"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// Order is the input to CreatePurchase.
type Order struct {
	BookID          uuid.UUID `json:"book_id"`
	BuyerID         uuid.UUID `json:"-"`
	Quantity        int       `json:"quantity"`
	ShippingAddress string    `json:"shipping_address"`
}

const aggregateType = "purchase"

const (
	EventCreated = "PurchaseCreated"
	EventPaid    = "PaymentReceived"
	EventFailed  = "PaymentFailed"
)

type createdEvent struct {
	PurchaseID    uuid.UUID `json:"purchase_id"`
	BookID        uuid.UUID `json:"book_id"`
	BuyerID       uuid.UUID `json:"buyer_id"`
	Quantity      int       `json:"quantity"`
	PurchasePrice float64   `json:"purchase_price"`
}

type paymentEvent struct {
	PurchaseID    uuid.UUID     `json:"purchase_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TransactionID string        `json:"transaction_id,omitempty"`
}
