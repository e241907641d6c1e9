package eventstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	all     []Event
	byAggID map[uuid.UUID][]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byAggID: make(map[uuid.UUID][]Event)}
}

func (m *MemoryStore) Append(_ context.Context, aggregateID uuid.UUID, aggregateType string, expectedVersion int, events ...Event) error {
	if expectedVersion < 0 {
		return ErrInvalidVersion
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.byAggID[aggregateID]) != expectedVersion {
		return ErrConcurrencyConflict
	}

	for i, event := range events {
		m.nextID++
		event.ID = m.nextID
		event.AggregateID = aggregateID
		event.AggregateType = aggregateType
		event.Version = expectedVersion + i + 1
		event.CreatedAt = time.Now().UTC()
		m.byAggID[aggregateID] = append(m.byAggID[aggregateID], event)
		m.all = append(m.all, event)
	}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, aggregateID uuid.UUID) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Event(nil), m.byAggID[aggregateID]...), nil
}

func (m *MemoryStore) CurrentVersion(_ context.Context, aggregateID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byAggID[aggregateID]), nil
}

func (m *MemoryStore) Stream(_ context.Context, fromID int64, batchSize int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Event
	for _, event := range m.all {
		if event.ID <= fromID {
			continue
		}
		out = append(out, event)
		if batchSize > 0 && len(out) == batchSize {
			break
		}
	}
	return out, nil
}
