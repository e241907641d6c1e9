// internal/wishlist/domain.go
package wishlist

import (
	"time"

	"github.com/google/uuid"
)

// Item marks a book a user wants. (UserID, BookID) is unique.
type Item struct {
	ID      uuid.UUID `db:"id" json:"id"`
	UserID  uuid.UUID `db:"user_id" json:"user_id"`
	BookID  uuid.UUID `db:"book_id" json:"book_id"`
	AddedAt time.Time `db:"added_at" json:"added_at"`
}
