// internal/messaging/service.go
package messaging

import (
	"context"

	"github.com/google/uuid"

	"booknest/internal/notification"
	"booknest/internal/profile"
)

// Service defines the interface for the messaging service.
type Service interface {
	SendPrivateMessage(ctx context.Context, draft Draft) (*Message, error)
	// GetConversation returns the thread between userID and otherID, oldest
	// first, and marks everything otherID sent to userID as read.
	GetConversation(ctx context.Context, userID, otherID uuid.UUID) ([]*Message, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

// Profiles looks up conversation partners.
type Profiles interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

type Notifier interface {
	Notify(ctx context.Context, note notification.Note)
}
