// internal/rental/domain.go
package rental

import (
	"time"

	"github.com/google/uuid"
)

const (
	day = 24 * time.Hour
	// lateFeeMultiplier is applied to the daily price for each day overdue.
	lateFeeMultiplier = 1.5
	aggregateType     = "rental"
)

// Status is the rental lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusReturned Status = "returned"
)

// Rental is a request to borrow a book for a fixed period at a daily price.
// PricePerDay is a snapshot taken when the request is made.
type Rental struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	BookID           uuid.UUID  `db:"book_id" json:"book_id"`
	RenterID         uuid.UUID  `db:"renter_id" json:"renter_id"`
	OwnerID          uuid.UUID  `db:"owner_id" json:"owner_id"`
	StartDate        time.Time  `db:"rental_start_date" json:"rental_start_date"`
	EndDate          time.Time  `db:"rental_end_date" json:"rental_end_date"`
	NumberOfDays     int        `db:"number_of_days" json:"number_of_days"`
	PricePerDay      float64    `db:"price_per_day" json:"price_per_day"`
	TotalRentalCost  float64    `db:"total_rental_cost" json:"total_rental_cost"`
	Notes            string     `db:"notes" json:"notes,omitempty"`
	Status           Status     `db:"status" json:"status"`
	ActualReturnDate *time.Time `db:"actual_return_date" json:"actual_return_date,omitempty"`
	LateFees         float64    `db:"late_fees" json:"late_fees"`
	Version          int        `db:"version" json:"version"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Request is the input to RequestRental.
type Request struct {
	BookID    uuid.UUID `json:"book_id"`
	RenterID  uuid.UUID `json:"-"`
	StartDate time.Time `json:"rental_start_date"`
	EndDate   time.Time `json:"rental_end_date"`
	Notes     string    `json:"notes"`
}

// wholeDays rounds d up to whole days. Non-positive durations are zero.
func wholeDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	n := int(d / day)
	if d%day != 0 {
		n++
	}
	return n
}

// RentalCost returns the number of billed days between start and end and the
// total for that period at pricePerDay.
func RentalCost(start, end time.Time, pricePerDay float64) (days int, total float64) {
	days = wholeDays(end.Sub(start))
	return days, float64(days) * pricePerDay
}

// LateFee is zero when returned is not after end; otherwise every started day
// overdue costs pricePerDay times 1.5.
func LateFee(end, returned time.Time, pricePerDay float64) float64 {
	daysLate := wholeDays(returned.Sub(end))
	if daysLate == 0 {
		return 0
	}
	return float64(daysLate) * pricePerDay * lateFeeMultiplier
}

// Lifecycle events recorded in the history.
const (
	EventRequested = "RentalRequested"
	EventApproved  = "RentalApproved"
	EventReturned  = "RentalReturned"
)

type requestedEvent struct {
	RentalID        uuid.UUID `json:"rental_id"`
	BookID          uuid.UUID `json:"book_id"`
	RenterID        uuid.UUID `json:"renter_id"`
	NumberOfDays    int       `json:"number_of_days"`
	TotalRentalCost float64   `json:"total_rental_cost"`
}

type approvedEvent struct {
	RentalID   uuid.UUID `json:"rental_id"`
	ApprovedBy uuid.UUID `json:"approved_by"`
	ApprovedAt time.Time `json:"approved_at"`
}

type returnedEvent struct {
	RentalID   uuid.UUID `json:"rental_id"`
	ReturnedAt time.Time `json:"returned_at"`
	LateFees   float64   `json:"late_fees"`
}
