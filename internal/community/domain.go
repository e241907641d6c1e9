// internal/community/domain.go
package community

import (
	"time"

	"github.com/google/uuid"
)

type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionLove    ReactionType = "love"
	ReactionHelpful ReactionType = "helpful"
)

func (t ReactionType) Valid() bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionHelpful:
		return true
	}
	return false
}

type Post struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	AuthorID  uuid.UUID  `db:"author_id" json:"author_id"`
	Title     string     `db:"title" json:"title"`
	Content   string     `db:"content" json:"content"`
	Category  string     `db:"category" json:"category"`
	BookID    *uuid.UUID `db:"book_id" json:"book_id,omitempty"`
	ViewCount int        `db:"view_count" json:"view_count"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// PostSummary is a post as listed on the board.
type PostSummary struct {
	Post
	CommentCount  int `db:"comment_count" json:"comment_count"`
	ReactionCount int `db:"reaction_count" json:"reaction_count"`
}

type Comment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PostID    uuid.UUID `db:"post_id" json:"post_id"`
	AuthorID  uuid.UUID `db:"author_id" json:"author_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Reaction targets exactly one of a post or a comment.
type Reaction struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	PostID       *uuid.UUID   `db:"post_id" json:"post_id,omitempty"`
	CommentID    *uuid.UUID   `db:"comment_id" json:"comment_id,omitempty"`
	UserID       uuid.UUID    `db:"user_id" json:"user_id"`
	ReactionType ReactionType `db:"reaction_type" json:"reaction_type"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// sameMark reports whether r and o are the same (target, user, type) marker.
func (r *Reaction) sameMark(o *Reaction) bool {
	return r.UserID == o.UserID && r.ReactionType == o.ReactionType &&
		sameID(r.PostID, o.PostID) && sameID(r.CommentID, o.CommentID)
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Toggle is the outcome of a reaction call: the inserted reaction, or
// Removed when an existing one was taken away.
type Toggle struct {
	Reaction *Reaction `json:"reaction,omitempty"`
	Removed  bool      `json:"removed"`
}

// PostDetail is a post with its thread, as seen by one viewer.
type PostDetail struct {
	Post          *Post          `json:"post"`
	Comments      []*Comment     `json:"comments"`
	Reactions     []*Reaction    `json:"reactions"`
	UserReactions []ReactionType `json:"user_reactions"`
}

type NewPost struct {
	AuthorID uuid.UUID  `json:"-"`
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Category string     `json:"category"`
	BookID   *uuid.UUID `json:"book_id,omitempty"`
}

// PostUpdate carries the fields an author may change. Nil fields are left
// alone.
type PostUpdate struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
}

func (u PostUpdate) apply(p *Post) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Content != nil {
		p.Content = *u.Content
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
}
