// internal/donation/domain.go
package donation

import (
	"time"

	"github.com/google/uuid"
)

// Type says who may receive the book.
type Type string

const (
	TypeDirect    Type = "direct"
	TypeCommunity Type = "community"
)

// Status is the donation lifecycle state.
type Status string

const (
	StatusAvailable Status = "available"
	StatusClaimed   Status = "claimed"
	StatusDelivered Status = "delivered"
)

// Donation offers a book for free. RecipientID is set once claimed.
type Donation struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	BookID        uuid.UUID  `db:"book_id" json:"book_id"`
	DonorID       uuid.UUID  `db:"donor_id" json:"donor_id"`
	RecipientID   *uuid.UUID `db:"recipient_id" json:"recipient_id,omitempty"`
	DonationType  Type       `db:"donation_type" json:"donation_type"`
	Status        Status     `db:"status" json:"status"`
	Notes         string     `db:"notes" json:"notes,omitempty"`
	ClaimedDate   *time.Time `db:"claimed_date" json:"claimed_date,omitempty"`
	DeliveredDate *time.Time `db:"delivered_date" json:"delivered_date,omitempty"`
	Version       int        `db:"version" json:"version"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

const aggregateType = "donation"

// Lifecycle events recorded in the history.
const (
	EventCreated   = "DonationCreated"
	EventClaimed   = "DonationClaimed"
	EventDelivered = "DonationDelivered"
)

type createdEvent struct {
	DonationID   uuid.UUID `json:"donation_id"`
	BookID       uuid.UUID `json:"book_id"`
	DonorID      uuid.UUID `json:"donor_id"`
	DonationType Type      `json:"donation_type"`
}

type claimedEvent struct {
	DonationID  uuid.UUID `json:"donation_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	ClaimedAt   time.Time `json:"claimed_at"`
}

type deliveredEvent struct {
	DonationID  uuid.UUID `json:"donation_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}
