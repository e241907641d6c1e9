// internal/realtime/protocol.go

// Package realtime pushes per-user change deltas over websockets. Clients keep
// a local Mirror of each collection current by applying the deltas in order.
package realtime

import (
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Topic names the collection a delta applies to.
type Topic string

const (
	TopicCart          Topic = "cart"
	TopicWishlist      Topic = "wishlist"
	TopicNotifications Topic = "notifications"
	TopicMessages      Topic = "messages"
	TopicRentals       Topic = "rentals"
	TopicDonations     Topic = "donations"
	TopicPurchases     Topic = "purchases"
)

// Op is the change kind.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpReset  Op = "reset"
)

// Delta is one change record. Record is the full row after the change and is
// omitted for deletes and resets.
type Delta struct {
	Topic  Topic  `json:"topic"`
	Op     Op     `json:"op"`
	ID     string `json:"id,omitempty"`
	Record any    `json:"record,omitempty"`
}

func Insert(topic Topic, id uuid.UUID, record any) Delta {
	return Delta{Topic: topic, Op: OpInsert, ID: id.String(), Record: record}
}

func Update(topic Topic, id uuid.UUID, record any) Delta {
	return Delta{Topic: topic, Op: OpUpdate, ID: id.String(), Record: record}
}

func Delete(topic Topic, id uuid.UUID) Delta {
	return Delta{Topic: topic, Op: OpDelete, ID: id.String()}
}

func Reset(topic Topic) Delta {
	return Delta{Topic: topic, Op: OpReset}
}

// Encode serializes a delta for the wire.
func Encode(d Delta) ([]byte, error) {
	return json.Marshal(d)
}

// Decode parses a wire delta, leaving Record as a jsoniter.RawMessage.
func Decode(data []byte) (Delta, error) {
	var wire struct {
		Topic  Topic               `json:"topic"`
		Op     Op                  `json:"op"`
		ID     string              `json:"id"`
		Record jsoniter.RawMessage `json:"record"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Delta{}, err
	}
	d := Delta{Topic: wire.Topic, Op: wire.Op, ID: wire.ID}
	if len(wire.Record) > 0 {
		d.Record = wire.Record
	}
	return d, nil
}

// Publisher delivers deltas to a user's live channel. Delivery is best effort.
type Publisher interface {
	Publish(userID uuid.UUID, d Delta)
}

// Discard is a Publisher that drops everything.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(uuid.UUID, Delta) {}
