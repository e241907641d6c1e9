// internal/community/service.go
package community

import (
	"context"

	"github.com/google/uuid"

	"booknest/internal/notification"
)

// Service defines the interface for the community board service.
type Service interface {
	CreatePost(ctx context.Context, in NewPost) (*Post, error)
	ListPosts(ctx context.Context, category string, limit, offset int) ([]*PostSummary, error)
	// GetPost counts a view and returns the post with its thread. viewerID
	// may be uuid.Nil for anonymous readers.
	GetPost(ctx context.Context, postID, viewerID uuid.UUID) (*PostDetail, error)
	UpdatePost(ctx context.Context, postID, authorID uuid.UUID, update PostUpdate) (*Post, error)
	DeletePost(ctx context.Context, postID, authorID uuid.UUID) error
	AddCommentToPost(ctx context.Context, postID, authorID uuid.UUID, content string) (*Comment, error)
	AddReactionToPost(ctx context.Context, postID, userID uuid.UUID, reaction ReactionType) (*Toggle, error)
	AddReactionToComment(ctx context.Context, commentID, userID uuid.UUID, reaction ReactionType) (*Toggle, error)
}

type Notifier interface {
	Notify(ctx context.Context, note notification.Note)
}
