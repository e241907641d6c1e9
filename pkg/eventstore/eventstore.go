// Package eventstore records the lifecycle history of rentals, donations and
// purchases as versioned events per aggregate.
package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConcurrencyConflict = errors.New("concurrency conflict: version mismatch")
	ErrInvalidVersion      = errors.New("invalid version number")
)

// Event is one recorded lifecycle step.
type Event struct {
	ID            int64           `json:"id" db:"id"`
	AggregateID   uuid.UUID       `json:"aggregate_id" db:"aggregate_id"`
	AggregateType string          `json:"aggregate_type" db:"aggregate_type"`
	EventType     string          `json:"event_type" db:"event_type"`
	EventData     json.RawMessage `json:"event_data" db:"event_data"`
	Metadata      map[string]any  `json:"metadata,omitempty" db:"-"`
	Version       int             `json:"version" db:"version"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// NewEvent marshals data into an event of the given type.
func NewEvent(eventType string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s: %w", eventType, err)
	}
	return Event{EventType: eventType, EventData: raw}, nil
}

// Store appends and reads aggregate histories. Append is optimistic: it fails
// with ErrConcurrencyConflict unless the aggregate is at expectedVersion.
type Store interface {
	Append(ctx context.Context, aggregateID uuid.UUID, aggregateType string, expectedVersion int, events ...Event) error
	Load(ctx context.Context, aggregateID uuid.UUID) ([]Event, error)
	CurrentVersion(ctx context.Context, aggregateID uuid.UUID) (int, error)
	Stream(ctx context.Context, fromID int64, batchSize int) ([]Event, error)
}
