// internal/wishlist/store.go
package wishlist

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type pair struct {
	user, book uuid.UUID
}

type MemoryRepository struct {
	mu    sync.RWMutex
	items map[pair]*Item
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[pair]*Item)}
}

func (r *MemoryRepository) Add(_ context.Context, item *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pair{item.UserID, item.BookID}
	if _, ok := r.items[key]; ok {
		return ErrDuplicate
	}
	cp := *item
	r.items[key] = &cp
	return nil
}

func (r *MemoryRepository) Remove(_ context.Context, userID, bookID uuid.UUID) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pair{userID, bookID}
	item, ok := r.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.items, key)
	return item, nil
}

func (r *MemoryRepository) List(_ context.Context, userID uuid.UUID) ([]*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Item, 0)
	for key, item := range r.items {
		if key.user == userID {
			cp := *item
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *Item) int { return b.AddedAt.Compare(a.AddedAt) })
	return out, nil
}

func (r *MemoryRepository) Contains(_ context.Context, userID, bookID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[pair{userID, bookID}]
	return ok, nil
}
