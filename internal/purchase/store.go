// internal/purchase/store.go
package purchase

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps purchases in process.
type MemoryRepository struct {
	mu        sync.RWMutex
	purchases map[uuid.UUID]*Purchase
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{purchases: make(map[uuid.UUID]*Purchase)}
}

func (m *MemoryRepository) Create(_ context.Context, p *Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.purchases[p.ID] = &cp
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.purchases[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepository) ListByBuyer(_ context.Context, buyerID uuid.UUID) ([]*Purchase, error) {
	return m.collect(func(p *Purchase) bool { return p.BuyerID == buyerID }), nil
}

func (m *MemoryRepository) ListBySeller(_ context.Context, sellerID uuid.UUID) ([]*Purchase, error) {
	return m.collect(func(p *Purchase) bool { return p.SellerID == sellerID }), nil
}

func (m *MemoryRepository) collect(keep func(*Purchase) bool) []*Purchase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Purchase, 0)
	for _, p := range m.purchases {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *Purchase) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

func (m *MemoryRepository) Settle(_ context.Context, p *Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.purchases[p.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.PaymentStatus != PaymentPending {
		return ErrAlreadySettled
	}
	stored.PaymentStatus = p.PaymentStatus
	stored.Status = p.Status
	stored.TransactionID = p.TransactionID
	stored.UpdatedAt = p.UpdatedAt
	stored.Version++
	p.Version = stored.Version
	return nil
}
