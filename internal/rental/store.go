// internal/rental/store.go
package rental

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps rentals in process.
type MemoryRepository struct {
	mu      sync.RWMutex
	rentals map[uuid.UUID]*Rental
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rentals: make(map[uuid.UUID]*Rental)}
}

func (m *MemoryRepository) Create(_ context.Context, r *Rental) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rentals[r.ID] = &cp
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Rental, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rentals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryRepository) ListByRenter(_ context.Context, renterID uuid.UUID) ([]*Rental, error) {
	return m.collect(func(r *Rental) bool { return r.RenterID == renterID }), nil
}

func (m *MemoryRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*Rental, error) {
	return m.collect(func(r *Rental) bool { return r.OwnerID == ownerID }), nil
}

func (m *MemoryRepository) collect(keep func(*Rental) bool) []*Rental {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Rental, 0)
	for _, r := range m.rentals {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *Rental) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

func (m *MemoryRepository) Transition(_ context.Context, r *Rental, from Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rentals[r.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != from {
		return ErrStatusChanged
	}
	stored.Status = r.Status
	stored.ActualReturnDate = r.ActualReturnDate
	stored.LateFees = r.LateFees
	stored.UpdatedAt = r.UpdatedAt
	stored.Version++
	r.Version = stored.Version
	return nil
}
