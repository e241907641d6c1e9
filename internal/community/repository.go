// internal/community/repository.go
package community

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	// ListPosts returns posts newest first with their comment and reaction
	// counts. An empty category lists every post.
	ListPosts(ctx context.Context, category string, limit, offset int) ([]*PostSummary, error)
	SavePost(ctx context.Context, p *Post) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) (int, error)

	CreateComment(ctx context.Context, c *Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListComments(ctx context.Context, postID uuid.UUID) ([]*Comment, error)

	// ToggleReaction removes the matching reaction if present and inserts r
	// otherwise, reporting which happened.
	ToggleReaction(ctx context.Context, r *Reaction) (removed bool, err error)
	ListPostReactions(ctx context.Context, postID uuid.UUID) ([]*Reaction, error)
}
