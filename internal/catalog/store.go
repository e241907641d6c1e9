// internal/catalog/store.go
package catalog

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps books in process.
type MemoryRepository struct {
	mu    sync.RWMutex
	books map[uuid.UUID]*Book
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{books: make(map[uuid.UUID]*Book)}
}

func (r *MemoryRepository) Create(_ context.Context, b *Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.books[b.ID] = &cp
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]*Book, error) {
	out := r.collect(f.matches)
	if f.Offset >= len(out) {
		return []*Book{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*Book, error) {
	return r.collect(func(b *Book) bool { return b.OwnerID == ownerID }), nil
}

func (r *MemoryRepository) Search(_ context.Context, q string) ([]*Book, error) {
	q = strings.ToLower(q)
	return r.collect(func(b *Book) bool {
		if b.Status != StatusActive {
			return false
		}
		return strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) ||
			strings.Contains(strings.ToLower(b.Category), q)
	}), nil
}

// collect returns copies of matching books, newest first.
func (r *MemoryRepository) collect(keep func(*Book) bool) []*Book {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Book, 0)
	for _, b := range r.books {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *Book) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

func (r *MemoryRepository) Save(_ context.Context, b *Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[b.ID]; !ok {
		return ErrNotFound
	}
	cp := *b
	r.books[b.ID] = &cp
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return ErrNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *MemoryRepository) AdjustQuantity(_ context.Context, id uuid.UUID, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return 0, ErrNotFound
	}
	if b.AvailableQuantity+delta < 0 {
		return b.AvailableQuantity, ErrInsufficientQuantity
	}
	b.AvailableQuantity += delta
	return b.AvailableQuantity, nil
}
