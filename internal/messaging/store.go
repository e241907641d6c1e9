// internal/messaging/store.go
package messaging

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps messages in process, in insertion order.
type MemoryRepository struct {
	mu       sync.RWMutex
	messages []*Message
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, m *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *MemoryRepository) Conversation(_ context.Context, a, b uuid.UUID) ([]*Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Message, 0)
	for _, m := range r.messages {
		if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
			cp := *m
			out = append(out, &cp)
		}
	}
	slices.SortStableFunc(out, func(x, y *Message) int { return x.CreatedAt.Compare(y.CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) MarkRead(_ context.Context, recipientID, senderID uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for _, m := range r.messages {
		if m.RecipientID == recipientID && m.SenderID == senderID && !m.IsRead {
			readAt := at
			m.IsRead = true
			m.ReadAt = &readAt
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

func (r *MemoryRepository) Latest(_ context.Context, userID uuid.UUID) ([]*Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	latest := make(map[uuid.UUID]*Message)
	for _, m := range r.messages {
		if m.SenderID != userID && m.RecipientID != userID {
			continue
		}
		p := m.partner(userID)
		if cur, ok := latest[p]; !ok || !m.CreatedAt.Before(cur.CreatedAt) {
			latest[p] = m
		}
	}
	out := make([]*Message, 0, len(latest))
	for _, m := range latest {
		cp := *m
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(x, y *Message) int { return y.CreatedAt.Compare(x.CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) UnreadBySender(_ context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[uuid.UUID]int)
	for _, m := range r.messages {
		if m.RecipientID == userID && !m.IsRead {
			counts[m.SenderID]++
		}
	}
	return counts, nil
}

func (r *MemoryRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	counts, _ := r.UnreadBySender(ctx, userID)
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}
