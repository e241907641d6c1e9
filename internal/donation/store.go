// internal/donation/store.go
package donation

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps donations in process.
type MemoryRepository struct {
	mu        sync.RWMutex
	donations map[uuid.UUID]*Donation
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{donations: make(map[uuid.UUID]*Donation)}
}

func (m *MemoryRepository) Create(_ context.Context, d *Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.donations[d.ID] = &cp
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.donations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryRepository) ListByStatus(_ context.Context, status Status) ([]*Donation, error) {
	return m.collect(func(d *Donation) bool { return d.Status == status }), nil
}

func (m *MemoryRepository) ListByDonor(_ context.Context, donorID uuid.UUID) ([]*Donation, error) {
	return m.collect(func(d *Donation) bool { return d.DonorID == donorID }), nil
}

func (m *MemoryRepository) collect(keep func(*Donation) bool) []*Donation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Donation, 0)
	for _, d := range m.donations {
		if keep(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *Donation) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

func (m *MemoryRepository) Transition(_ context.Context, d *Donation, from Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.donations[d.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != from {
		return ErrStatusChanged
	}
	stored.Status = d.Status
	stored.RecipientID = d.RecipientID
	stored.ClaimedDate = d.ClaimedDate
	stored.DeliveredDate = d.DeliveredDate
	stored.UpdatedAt = d.UpdatedAt
	stored.Version++
	d.Version = stored.Version
	return nil
}
