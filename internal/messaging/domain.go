// internal/messaging/domain.go
package messaging

import (
	"time"

	"github.com/google/uuid"

	"booknest/internal/profile"
)

// Message is a private message between two users, optionally about a book.
type Message struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	SenderID    uuid.UUID  `db:"sender_id" json:"sender_id"`
	RecipientID uuid.UUID  `db:"recipient_id" json:"recipient_id"`
	Message     string     `db:"message" json:"message"`
	BookID      *uuid.UUID `db:"book_id" json:"book_id,omitempty"`
	IsRead      bool       `db:"is_read" json:"is_read"`
	ReadAt      *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// partner is the other party of m as seen by userID.
func (m *Message) partner(userID uuid.UUID) uuid.UUID {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// Conversation summarises the thread with one partner.
type Conversation struct {
	PartnerID   uuid.UUID        `json:"partner_id"`
	Partner     *profile.Profile `json:"partner,omitempty"`
	LastMessage *Message         `json:"last_message"`
	UnreadCount int              `json:"unread_count"`
}

// Draft is the input to SendPrivateMessage.
type Draft struct {
	SenderID    uuid.UUID  `json:"-"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	Message     string     `json:"message"`
	BookID      *uuid.UUID `json:"book_id,omitempty"`
}
