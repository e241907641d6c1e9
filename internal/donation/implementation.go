// internal/donation/implementation.go
package donation

import (
	"context"
	"errors"
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

// NewService creates a new donation service instance.
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
		tracer:    otel.Tracer("booknest/donation"),
		now:       time.Now,
	}
}

// CreateDonation offers one of the donor's books and relists it as a
// donation.
func (s *service) CreateDonation(ctx context.Context, bookID, donorID uuid.UUID, donationType Type, notes string) (d *Donation, err error) {
	ctx, span := s.tracer.Start(ctx, "donation.create")
	defer func() { telemetry.End(ctx, span, "donation.create", err) }()

	if donationType == "" {
		donationType = TypeCommunity
	}
	if donationType != TypeCommunity && donationType != TypeDirect {
		return nil, result.InvalidInput("Invalid donation type")
	}

	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.OwnerID != donorID {
		return nil, result.Unauthorized("Unauthorized")
	}

	now := s.now().UTC()
	d = &Donation{
		ID:           uuid.New(),
		BookID:       bookID,
		DonorID:      donorID,
		DonationType: donationType,
		Status:       StatusAvailable,
		Notes:        notes,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, result.Failed(err)
	}
	if _, err := s.books.MarkForDonation(ctx, bookID); err != nil {
		s.log.Errorw("Failed to mark book for donation", "book_id", bookID, "error", err)
	}

	s.record(ctx, d.ID, 0, EventCreated, createdEvent{DonationID: d.ID, BookID: bookID, DonorID: donorID, DonationType: donationType})
	s.publisher.Publish(donorID, realtime.Insert(realtime.TopicDonations, d.ID, d))

	s.log.Infow("Donation created", "donation_id", d.ID, "book_id", bookID, "donor_id", donorID)
	return d, nil
}

// ClaimDonation reserves an available donation for recipientID. Only one
// claim can win.
func (s *service) ClaimDonation(ctx context.Context, donationID, recipientID uuid.UUID) (d *Donation, err error) {
	ctx, span := s.tracer.Start(ctx, "donation.claim")
	defer func() { telemetry.End(ctx, span, "donation.claim", err) }()
	span.SetAttributes(attribute.String("donation_id", donationID.String()))

	d, err = s.load(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if recipientID == uuid.Nil {
		return nil, result.InvalidInput("Recipient required")
	}
	if d.DonorID == recipientID {
		return nil, result.InvalidInput("You cannot claim your own donation")
	}
	if d.Status != StatusAvailable {
		return nil, result.Conflict("Donation is no longer available")
	}

	claimed := s.now().UTC()
	d.Status = StatusClaimed
	d.RecipientID = &recipientID
	d.ClaimedDate = &claimed
	d.UpdatedAt = claimed
	if err := s.repo.Transition(ctx, d, StatusAvailable); err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, result.Conflict("Donation is no longer available")
		}
		return nil, result.Failed(err)
	}

	s.record(ctx, d.ID, d.Version-1, EventClaimed, claimedEvent{DonationID: d.ID, RecipientID: recipientID, ClaimedAt: claimed})
	s.notifier.Notify(ctx, notification.Note{
		UserID:    d.DonorID,
		Title:     "Donation Claimed",
		Message:   "Your donated book has been claimed",
		Type:      notification.TypeDonation,
		RelatedID: d.ID,
	})
	s.publisher.Publish(d.DonorID, realtime.Update(realtime.TopicDonations, d.ID, d))
	s.publisher.Publish(recipientID, realtime.Insert(realtime.TopicDonations, d.ID, d))

	s.log.Infow("Donation claimed", "donation_id", d.ID, "recipient_id", recipientID)
	return d, nil
}

// MarkDonationDelivered is confirmed by the donor once a claimed book has
// been handed over.
func (s *service) MarkDonationDelivered(ctx context.Context, donationID, donorID uuid.UUID) (d *Donation, err error) {
	ctx, span := s.tracer.Start(ctx, "donation.deliver")
	defer func() { telemetry.End(ctx, span, "donation.deliver", err) }()

	d, err = s.repo.Get(ctx, donationID)
	if errors.Is(err, ErrNotFound) || (err == nil && d.DonorID != donorID) {
		return nil, result.Unauthorized("Unauthorized")
	}
	if err != nil {
		return nil, result.Failed(err)
	}
	if d.Status != StatusClaimed {
		return nil, result.Conflict("Donation is %s, not claimed", d.Status)
	}

	delivered := s.now().UTC()
	d.Status = StatusDelivered
	d.DeliveredDate = &delivered
	d.UpdatedAt = delivered
	if err := s.repo.Transition(ctx, d, StatusClaimed); err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, result.Conflict("Donation was already delivered")
		}
		return nil, result.Failed(err)
	}

	s.record(ctx, d.ID, d.Version-1, EventDelivered, deliveredEvent{DonationID: d.ID, DeliveredAt: delivered})
	s.publisher.Publish(d.DonorID, realtime.Update(realtime.TopicDonations, d.ID, d))
	if d.RecipientID != nil {
		s.publisher.Publish(*d.RecipientID, realtime.Update(realtime.TopicDonations, d.ID, d))
	}
	return d, nil
}

func (s *service) ListAvailableDonations(ctx context.Context) (out []*Donation, err error) {
	ctx, span := s.tracer.Start(ctx, "donation.list_available")
	defer func() { telemetry.End(ctx, span, "donation.list_available", err) }()

	out, err = s.repo.ListByStatus(ctx, StatusAvailable)
	return out, result.Failed(err)
}

func (s *service) ListDonorDonations(ctx context.Context, donorID uuid.UUID) (out []*Donation, err error) {
	ctx, span := s.tracer.Start(ctx, "donation.list_donor")
	defer func() { telemetry.End(ctx, span, "donation.list_donor", err) }()

	out, err = s.repo.ListByDonor(ctx, donorID)
	return out, result.Failed(err)
}

func (s *service) History(ctx context.Context, donationID uuid.UUID) (events []eventstore.Event, err error) {
	ctx, span := s.tracer.Start(ctx, "donation.history")
	defer func() { telemetry.End(ctx, span, "donation.history", err) }()

	events, err = s.events.Load(ctx, donationID)
	if err != nil {
		return nil, result.Failed(err)
	}
	if len(events) == 0 {
		return nil, result.NotFound("Donation not found")
	}
	return events, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*Donation, error) {
	d, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, result.NotFound("Donation not found")
	}
	if err != nil {
		return nil, result.Failed(err)
	}
	return d, nil
}

func (s *service) record(ctx context.Context, id uuid.UUID, expectedVersion int, eventType string, data any) {
	event, err := eventstore.NewEvent(eventType, data)
	if err == nil {
		err = s.events.Append(ctx, id, aggregateType, expectedVersion, event)
	}
	if err != nil {
		s.log.Errorw("Failed to record donation event", "donation_id", id, "event", eventType, "error", err)
	}
}
