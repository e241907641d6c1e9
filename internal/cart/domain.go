// internal/cart/domain.go
package cart

import (
	"time"

	"github.com/google/uuid"
)

// ItemType is how the user means to take the book.
type ItemType string

const (
	TypeBuy  ItemType = "buy"
	TypeRent ItemType = "rent"
)

func (t ItemType) Valid() bool {
	return t == TypeBuy || t == TypeRent
}

// Item is one cart line. (UserID, BookID, Type) is unique.
type Item struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	BookID    uuid.UUID `db:"book_id" json:"book_id"`
	Type      ItemType  `db:"type" json:"type"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
