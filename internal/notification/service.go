// internal/notification/service.go
package notification

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the notification service.
type Service interface {
	// Notify records a notification and pushes it to the user's live
	// channel. Failures are logged and never returned.
	Notify(ctx context.Context, note Note)
	List(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (*Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
