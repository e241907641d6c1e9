// internal/rental/implementation.go
package rental

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"booknest/internal/notification"
	"booknest/internal/platform/telemetry"
	"booknest/internal/realtime"
	"booknest/internal/result"
	"booknest/pkg/eventstore"
)

// service implements the Service interface.
type service struct {
	repo      Repository
	books     Books
	notifier  Notifier
	publisher realtime.Publisher
	events    eventstore.Store
	log       *zap.SugaredLogger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService creates a new rental service instance.
func NewService(repo Repository, books Books, notifier Notifier, publisher realtime.Publisher, events eventstore.Store, log *zap.SugaredLogger) Service {
	if publisher == nil {
		publisher = realtime.Discard
	}
	return &service{
		repo:      repo,
		books:     books,
		notifier:  notifier,
		publisher: publisher,
		events:    events,
		log:       log,
		tracer:    otel.Tracer("booknest/rental"),
		now:       time.Now,
	}
}

// RequestRental creates a pending rental. The cost is fixed from the book's
// current daily price.
func (s *service) RequestRental(ctx context.Context, req Request) (r *Rental, err error) {
	ctx, span := s.tracer.Start(ctx, "rental.request")
	defer func() { telemetry.End(ctx, span, "rental.request", err) }()
	span.SetAttributes(attribute.String("book_id", req.BookID.String()))

	if !req.EndDate.After(req.StartDate) {
		return nil, result.InvalidInput("Rental end date must be after the start date")
	}

	// Step 1: Check the book is available
	book, err := s.books.GetBook(ctx, req.BookID)
	if err != nil {
		return nil, err
	}
	if book.OwnerID == req.RenterID {
		return nil, result.InvalidInput("You cannot rent your own book")
	}
	if book.AvailableQuantity <= 0 {
		return nil, result.BookUnavailable("Book not available")
	}

	// Step 2: Price the period and store the request
	days, total := RentalCost(req.StartDate, req.EndDate, book.PricePerDay)
	now := s.now().UTC()
	r = &Rental{
		ID:              uuid.New(),
		BookID:          book.ID,
		RenterID:        req.RenterID,
		OwnerID:         book.OwnerID,
		StartDate:       req.StartDate.UTC(),
		EndDate:         req.EndDate.UTC(),
		NumberOfDays:    days,
		PricePerDay:     book.PricePerDay,
		TotalRentalCost: total,
		Notes:           req.Notes,
		Status:          StatusPending,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, result.Failed(err)
	}

	// Step 3: Record history, tell the owner
	s.record(ctx, r.ID, 0, EventRequested, requestedEvent{
		RentalID:        r.ID,
		BookID:          r.BookID,
		RenterID:        r.RenterID,
		NumberOfDays:    days,
		TotalRentalCost: total,
	})
	s.notifier.Notify(ctx, notification.Note{
		UserID:    r.OwnerID,
		Title:     "Rental Request",
		Message:   fmt.Sprintf("New rental request for %s.", book.Title),
		Type:      notification.TypeRental,
		RelatedID: r.ID,
	})
	s.broadcast(realtime.Insert(realtime.TopicRentals, r.ID, r), r)

	s.log.Infow("Rental requested", "rental_id", r.ID, "book_id", r.BookID, "renter_id", r.RenterID, "days", days)
	return r, nil
}

// ApproveRental activates a pending rental and takes one copy out of
// circulation. Only the owner may approve, and only once.
func (s *service) ApproveRental(ctx context.Context, rentalID, ownerID uuid.UUID) (r *Rental, err error) {
	ctx, span := s.tracer.Start(ctx, "rental.approve")
	defer func() { telemetry.End(ctx, span, "rental.approve", err) }()
	span.SetAttributes(attribute.String("rental_id", rentalID.String()))

	// Step 1: Load and authorize
	r, err = s.load(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != ownerID {
		return nil, result.Unauthorized("Unauthorized or rental not found")
	}
	if r.Status != StatusPending {
		return nil, result.Conflict("Rental is %s, not pending", r.Status)
	}
	book, err := s.books.GetBook(ctx, r.BookID)
	if err != nil {
		return nil, err
	}

	// Step 2: Take a copy (with compensation)
	if _, err := s.books.AdjustQuantity(ctx, r.BookID, -1); err != nil {
		if errors.Is(err, result.ErrInsufficientStock) {
			return nil, result.BookUnavailable("Book not available")
		}
		return nil, err
	}
	compensation := func() {
		s.log.Warnw("Compensating for failed approval: releasing copy", "rental_id", r.ID, "book_id", r.BookID)
		if _, err := s.books.AdjustQuantity(ctx, r.BookID, 1); err != nil {
			s.log.Errorw("Failed to compensate book quantity", "book_id", r.BookID, "error", err)
		}
	}

	// Step 3: pending -> active
	r.Status = StatusActive
	r.UpdatedAt = s.now().UTC()
	if err := s.repo.Transition(ctx, r, StatusPending); err != nil {
		compensation()
		return nil, transitionError(err, "Rental was already processed")
	}

	// Step 4: Record history, tell the renter
	s.record(ctx, r.ID, r.Version-1, EventApproved, approvedEvent{RentalID: r.ID, ApprovedBy: ownerID, ApprovedAt: r.UpdatedAt})
	s.notifier.Notify(ctx, notification.Note{
		UserID:    r.RenterID,
		Title:     "Rental Approved",
		Message:   fmt.Sprintf("Your rental request for %q has been approved.", book.Title),
		Type:      notification.TypeRental,
		RelatedID: r.ID,
	})
	s.broadcast(realtime.Update(realtime.TopicRentals, r.ID, r), r)

	s.log.Infow("Rental approved", "rental_id", r.ID, "owner_id", ownerID)
	return r, nil
}

// ReturnRental closes an active rental, charging late fees when it comes back
// after the end date, and puts the copy back.
func (s *service) ReturnRental(ctx context.Context, rentalID, renterID uuid.UUID) (r *Rental, err error) {
	ctx, span := s.tracer.Start(ctx, "rental.return")
	defer func() { telemetry.End(ctx, span, "rental.return", err) }()
	span.SetAttributes(attribute.String("rental_id", rentalID.String()))

	// Step 1: Load and authorize
	r, err = s.load(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if r.RenterID != renterID {
		return nil, result.Unauthorized("Unauthorized or rental not found")
	}
	if r.Status != StatusActive {
		return nil, result.Conflict("Rental is %s, not active", r.Status)
	}
	book, err := s.books.GetBook(ctx, r.BookID)
	if err != nil {
		return nil, err
	}

	// Step 2: Put the copy back (with compensation)
	if _, err := s.books.AdjustQuantity(ctx, r.BookID, 1); err != nil {
		return nil, err
	}
	compensation := func() {
		s.log.Warnw("Compensating for failed return: taking copy back out", "rental_id", r.ID, "book_id", r.BookID)
		if _, err := s.books.AdjustQuantity(ctx, r.BookID, -1); err != nil {
			s.log.Errorw("Failed to compensate book quantity", "book_id", r.BookID, "error", err)
		}
	}

	// Step 3: active -> returned
	returned := s.now().UTC()
	r.Status = StatusReturned
	r.ActualReturnDate = &returned
	r.LateFees = LateFee(r.EndDate, returned, r.PricePerDay)
	r.UpdatedAt = returned
	if err := s.repo.Transition(ctx, r, StatusActive); err != nil {
		compensation()
		return nil, transitionError(err, "Rental was already returned")
	}

	// Step 4: Record history, tell the owner
	s.record(ctx, r.ID, r.Version-1, EventReturned, returnedEvent{RentalID: r.ID, ReturnedAt: returned, LateFees: r.LateFees})
	s.notifier.Notify(ctx, notification.Note{
		UserID:    r.OwnerID,
		Title:     "Book Returned",
		Message:   fmt.Sprintf("%q has been returned by the renter.", book.Title),
		Type:      notification.TypeRental,
		RelatedID: r.ID,
	})
	s.broadcast(realtime.Update(realtime.TopicRentals, r.ID, r), r)

	s.log.Infow("Rental returned", "rental_id", r.ID, "late_fees", r.LateFees)
	return r, nil
}

// GetRental returns a rental to either of its parties.
func (s *service) GetRental(ctx context.Context, rentalID, userID uuid.UUID) (r *Rental, err error) {
	ctx, span := s.tracer.Start(ctx, "rental.get")
	defer func() { telemetry.End(ctx, span, "rental.get", err) }()

	r, err = s.load(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if r.RenterID != userID && r.OwnerID != userID {
		return nil, result.Unauthorized("Unauthorized or rental not found")
	}
	return r, nil
}

func (s *service) ListRenterRentals(ctx context.Context, userID uuid.UUID) (out []*Rental, err error) {
	ctx, span := s.tracer.Start(ctx, "rental.list_renter")
	defer func() { telemetry.End(ctx, span, "rental.list_renter", err) }()

	out, err = s.repo.ListByRenter(ctx, userID)
	return out, result.Failed(err)
}

func (s *service) ListOwnerRentals(ctx context.Context, userID uuid.UUID) (out []*Rental, err error) {
	ctx, span := s.tracer.Start(ctx, "rental.list_owner")
	defer func() { telemetry.End(ctx, span, "rental.list_owner", err) }()

	out, err = s.repo.ListByOwner(ctx, userID)
	return out, result.Failed(err)
}

// History returns the recorded lifecycle events of a rental, oldest first.
func (s *service) History(ctx context.Context, rentalID uuid.UUID) (events []eventstore.Event, err error) {
	ctx, span := s.tracer.Start(ctx, "rental.history")
	defer func() { telemetry.End(ctx, span, "rental.history", err) }()

	events, err = s.events.Load(ctx, rentalID)
	if err != nil {
		return nil, result.Failed(err)
	}
	if len(events) == 0 {
		return nil, result.NotFound("Rental not found")
	}
	return events, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*Rental, error) {
	r, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, result.NotFound("Unauthorized or rental not found")
	}
	if err != nil {
		return nil, result.Failed(err)
	}
	return r, nil
}

// transitionError maps a failed status change onto the workflow taxonomy.
func transitionError(err error, conflict string) error {
	switch {
	case errors.Is(err, ErrStatusChanged):
		return result.Conflict("%s", conflict)
	case errors.Is(err, ErrNotFound):
		return result.NotFound("Unauthorized or rental not found")
	}
	return result.Failed(err)
}

// record appends one history event. The rental row is authoritative, so a
// failed append is logged rather than returned.
func (s *service) record(ctx context.Context, id uuid.UUID, expectedVersion int, eventType string, data any) {
	event, err := eventstore.NewEvent(eventType, data)
	if err == nil {
		err = s.events.Append(ctx, id, aggregateType, expectedVersion, event)
	}
	if err != nil {
		s.log.Errorw("Failed to record rental event", "rental_id", id, "event", eventType, "error", err)
	}
}

func (s *service) broadcast(d realtime.Delta, r *Rental) {
	s.publisher.Publish(r.RenterID, d)
	s.publisher.Publish(r.OwnerID, d)
}
