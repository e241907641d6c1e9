// internal/community/store.go
package community

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps the board in process.
type MemoryRepository struct {
	mu        sync.RWMutex
	posts     map[uuid.UUID]*Post
	comments  []*Comment
	reactions []*Reaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{posts: make(map[uuid.UUID]*Post)}
}

func (r *MemoryRepository) CreatePost(_ context.Context, p *Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.posts[p.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetPost(_ context.Context, id uuid.UUID) (*Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) ListPosts(_ context.Context, category string, limit, offset int) ([]*PostSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*PostSummary, 0)
	for _, p := range r.posts {
		if category != "" && p.Category != category {
			continue
		}
		s := &PostSummary{Post: *p}
		for _, c := range r.comments {
			if c.PostID == p.ID {
				s.CommentCount++
			}
		}
		for _, re := range r.reactions {
			if re.PostID != nil && *re.PostID == p.ID {
				s.ReactionCount++
			}
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *PostSummary) int { return b.CreatedAt.Compare(a.CreatedAt) })

	if offset >= len(out) {
		return []*PostSummary{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) SavePost(_ context.Context, p *Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	r.posts[p.ID] = &cp
	return nil
}

// DeletePost removes the post with its comments and every reaction on
// either.
func (r *MemoryRepository) DeletePost(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return ErrNotFound
	}
	delete(r.posts, id)

	gone := make(map[uuid.UUID]bool)
	r.comments = slices.DeleteFunc(r.comments, func(c *Comment) bool {
		if c.PostID == id {
			gone[c.ID] = true
			return true
		}
		return false
	})
	r.reactions = slices.DeleteFunc(r.reactions, func(re *Reaction) bool {
		return (re.PostID != nil && *re.PostID == id) || (re.CommentID != nil && gone[*re.CommentID])
	})
	return nil
}

func (r *MemoryRepository) IncrementViews(_ context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return 0, ErrNotFound
	}
	p.ViewCount++
	return p.ViewCount, nil
}

func (r *MemoryRepository) CreateComment(_ context.Context, c *Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[c.PostID]; !ok {
		return ErrNotFound
	}
	cp := *c
	r.comments = append(r.comments, &cp)
	return nil
}

func (r *MemoryRepository) GetComment(_ context.Context, id uuid.UUID) (*Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.comments {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) ListComments(_ context.Context, postID uuid.UUID) ([]*Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Comment, 0)
	for _, c := range r.comments {
		if c.PostID == postID {
			cp := *c
			out = append(out, &cp)
		}
	}
	slices.SortStableFunc(out, func(a, b *Comment) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) ToggleReaction(_ context.Context, re *Reaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.reactions {
		if existing.sameMark(re) {
			r.reactions = slices.Delete(r.reactions, i, i+1)
			return true, nil
		}
	}
	cp := *re
	r.reactions = append(r.reactions, &cp)
	return false, nil
}

func (r *MemoryRepository) ListPostReactions(_ context.Context, postID uuid.UUID) ([]*Reaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Reaction, 0)
	for _, re := range r.reactions {
		if re.PostID != nil && *re.PostID == postID {
			cp := *re
			out = append(out, &cp)
		}
	}
	return out, nil
}
