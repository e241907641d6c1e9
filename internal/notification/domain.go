// internal/notification/domain.go
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type tags what a notification is about.
type Type string

const (
	TypeRental    Type = "rental"
	TypeDonation  Type = "donation"
	TypePurchase  Type = "purchase"
	TypeMessage   Type = "message"
	TypeCommunity Type = "community"
)

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	Title         string     `db:"title" json:"title"`
	Message       string     `db:"message" json:"message"`
	Type          Type       `db:"notification_type" json:"notification_type"`
	RelatedItemID *uuid.UUID `db:"related_item_id" json:"related_item_id,omitempty"`
	IsRead        bool       `db:"is_read" json:"is_read"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Note is what a workflow hands to Notify. RelatedID may be uuid.Nil.
type Note struct {
	UserID    uuid.UUID
	Title     string
	Message   string
	Type      Type
	RelatedID uuid.UUID
}
