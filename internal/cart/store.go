// internal/cart/store.go
package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Item
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[uuid.UUID]*Item)}
}

func (r *MemoryRepository) Add(_ context.Context, item *Item) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.UserID == item.UserID && existing.BookID == item.BookID && existing.Type == item.Type {
			existing.Quantity++
			cp := *existing
			return &cp, nil
		}
	}
	stored := *item
	r.items[item.ID] = &stored
	cp := stored
	return &cp, nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *MemoryRepository) SetQuantity(_ context.Context, id uuid.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	item.Quantity = quantity
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) Clear(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if item.UserID == userID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *MemoryRepository) List(_ context.Context, userID uuid.UUID) ([]*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Item, 0)
	for _, item := range r.items {
		if item.UserID == userID {
			cp := *item
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *Item) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}
