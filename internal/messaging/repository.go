// internal/messaging/repository.go
package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists private messages.
type Repository interface {
	Create(ctx context.Context, m *Message) error
	// Conversation returns every message exchanged between a and b, oldest
	// first.
	Conversation(ctx context.Context, a, b uuid.UUID) ([]*Message, error)
	// MarkRead marks unread messages from sender to recipient as read and
	// returns the ids it changed.
	MarkRead(ctx context.Context, recipientID, senderID uuid.UUID, at time.Time) ([]uuid.UUID, error)
	// Latest returns the newest message of each conversation userID is part
	// of, newest first.
	Latest(ctx context.Context, userID uuid.UUID) ([]*Message, error)
	// UnreadBySender counts unread messages addressed to userID per sender.
	UnreadBySender(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}
