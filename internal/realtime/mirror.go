// internal/realtime/mirror.go
package realtime

import (
	"fmt"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// Mirror is a client-side copy of the user's collections, keyed by topic and
// row id, kept current by Apply.
type Mirror struct {
	mu     sync.RWMutex
	topics map[Topic]map[string]jsoniter.RawMessage
}

func NewMirror() *Mirror {
	return &Mirror{topics: make(map[Topic]map[string]jsoniter.RawMessage)}
}

// Seed stores an initial row, typically from a list call made before
// subscribing.
func (m *Mirror) Seed(topic Topic, id string, record any) error {
	raw, err := toRaw(record)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows(topic)[id] = raw
	return nil
}

// Apply merges one delta. Updates to an unknown id insert it.
func (m *Mirror) Apply(d Delta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch d.Op {
	case OpInsert, OpUpdate:
		if d.ID == "" {
			return fmt.Errorf("%s delta on %s without id", d.Op, d.Topic)
		}
		raw, err := toRaw(d.Record)
		if err != nil {
			return err
		}
		m.rows(d.Topic)[d.ID] = raw
	case OpDelete:
		delete(m.rows(d.Topic), d.ID)
	case OpReset:
		delete(m.topics, d.Topic)
	default:
		return fmt.Errorf("unknown delta op %q", d.Op)
	}
	return nil
}

func (m *Mirror) Get(topic Topic, id string) (jsoniter.RawMessage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.topics[topic][id]
	return raw, ok
}

func (m *Mirror) Len(topic Topic) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.topics[topic])
}

// IDs returns the row ids of a topic in sorted order.
func (m *Mirror) IDs(topic Topic) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.topics[topic]))
	for id := range m.topics[topic] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Mirror) rows(topic Topic) map[string]jsoniter.RawMessage {
	rows, ok := m.topics[topic]
	if !ok {
		rows = make(map[string]jsoniter.RawMessage)
		m.topics[topic] = rows
	}
	return rows
}

func toRaw(record any) (jsoniter.RawMessage, error) {
	switch r := record.(type) {
	case nil:
		return nil, nil
	case jsoniter.RawMessage:
		return r, nil
	case []byte:
		return jsoniter.RawMessage(r), nil
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return raw, nil
}
