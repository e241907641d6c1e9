// internal/purchase/implementation.go
package purchase

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

// NewService creates a new purchase service instance.
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
		tracer:    otel.Tracer("booknest/purchase"),
		now:       time.Now,
	}
}

// CreatePurchase places an order and reserves the copies until payment is
// settled.
func (s *service) CreatePurchase(ctx context.Context, order Order) (p *Purchase, err error) {
	ctx, span := s.tracer.Start(ctx, "purchase.create")
	defer func() { telemetry.End(ctx, span, "purchase.create", err) }()
	span.SetAttributes(attribute.String("book_id", order.BookID.String()), attribute.Int("quantity", order.Quantity))

	if order.Quantity == 0 {
		order.Quantity = 1
	}
	if order.Quantity < 0 {
		return nil, result.InvalidInput("Quantity must be positive")
	}

	// Step 1: Check stock
	book, err := s.books.GetBook(ctx, order.BookID)
	if err != nil {
		return nil, err
	}
	if book.OwnerID == order.BuyerID {
		return nil, result.InvalidInput("You cannot buy your own book")
	}
	if book.AvailableQuantity < order.Quantity {
		return nil, result.InsufficientStock("Insufficient stock")
	}

	// Step 2: Reserve the copies (with compensation)
	if _, err := s.books.AdjustQuantity(ctx, book.ID, -order.Quantity); err != nil {
		return nil, err
	}
	compensation := func() {
		s.log.Warnw("Compensating for failed purchase: releasing reserved copies", "book_id", book.ID, "quantity", order.Quantity)
		if _, err := s.books.AdjustQuantity(ctx, book.ID, order.Quantity); err != nil {
			s.log.Errorw("Failed to compensate book quantity", "book_id", book.ID, "error", err)
		}
	}

	// Step 3: Store the order
	now := s.now().UTC()
	p = &Purchase{
		ID:              uuid.New(),
		BookID:          book.ID,
		BuyerID:         order.BuyerID,
		SellerID:        book.OwnerID,
		PurchasePrice:   book.PriceBuy,
		Quantity:        order.Quantity,
		PaymentStatus:   PaymentPending,
		Status:          StatusPending,
		ShippingAddress: order.ShippingAddress,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		compensation()
		return nil, result.Failed(err)
	}

	// Step 4: Record history, tell the seller
	s.record(ctx, p.ID, 0, EventCreated, createdEvent{
		PurchaseID: p.ID, BookID: p.BookID, BuyerID: p.BuyerID, Quantity: p.Quantity, PurchasePrice: p.PurchasePrice,
	})
	s.notifier.Notify(ctx, notification.Note{
		UserID:    p.SellerID,
		Title:     "New Purchase Order",
		Message:   fmt.Sprintf("New purchase order for %s", book.Title),
		Type:      notification.TypePurchase,
		RelatedID: p.ID,
	})
	s.broadcast(realtime.Insert(realtime.TopicPurchases, p.ID, p), p)

	s.log.Infow("Purchase created", "purchase_id", p.ID, "book_id", p.BookID, "buyer_id", p.BuyerID, "quantity", p.Quantity)
	return p, nil
}

// UpdatePaymentStatus settles a pending payment. A failed payment cancels
// the order and releases the reserved copies.
func (s *service) UpdatePaymentStatus(ctx context.Context, purchaseID uuid.UUID, status PaymentStatus, transactionID string) (p *Purchase, err error) {
	ctx, span := s.tracer.Start(ctx, "purchase.update_payment")
	defer func() { telemetry.End(ctx, span, "purchase.update_payment", err) }()
	span.SetAttributes(attribute.String("purchase_id", purchaseID.String()), attribute.String("status", string(status)))

	if status != PaymentPaid && status != PaymentFailed {
		return nil, result.InvalidInput("Payment status must be paid or failed")
	}

	p, err = s.load(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if p.PaymentStatus != PaymentPending {
		return nil, result.Conflict("Payment already %s", p.PaymentStatus)
	}

	p.PaymentStatus = status
	p.TransactionID = transactionID
	p.UpdatedAt = s.now().UTC()
	p.Status = StatusConfirmed
	if status == PaymentFailed {
		p.Status = StatusCancelled
	}
	if err := s.repo.Settle(ctx, p); err != nil {
		if errors.Is(err, ErrAlreadySettled) {
			return nil, result.Conflict("Payment already settled")
		}
		return nil, result.Failed(err)
	}

	title := "your order"
	if book, err := s.books.GetBook(ctx, p.BookID); err == nil {
		title = fmt.Sprintf("%q", book.Title)
	}

	note := notification.Note{UserID: p.BuyerID, Type: notification.TypePurchase, RelatedID: p.ID}
	eventType := EventPaid
	if status == PaymentFailed {
		eventType = EventFailed
		if _, err := s.books.AdjustQuantity(ctx, p.BookID, p.Quantity); err != nil {
			s.log.Errorw("Failed to release reserved copies", "purchase_id", p.ID, "book_id", p.BookID, "error", err)
		}
		note.Title = "Payment Failed"
		note.Message = fmt.Sprintf("Payment for %s failed and the order was cancelled.", title)
	} else {
		note.Title = "Payment Received"
		note.Message = fmt.Sprintf("Payment for %s was received. Your order is confirmed.", title)
	}

	s.record(ctx, p.ID, p.Version-1, eventType, paymentEvent{PurchaseID: p.ID, PaymentStatus: status, TransactionID: transactionID})
	s.notifier.Notify(ctx, note)
	s.broadcast(realtime.Update(realtime.TopicPurchases, p.ID, p), p)

	s.log.Infow("Payment settled", "purchase_id", p.ID, "payment_status", status)
	return p, nil
}

// GetPurchase returns a purchase to its buyer or seller.
func (s *service) GetPurchase(ctx context.Context, purchaseID, userID uuid.UUID) (p *Purchase, err error) {
	ctx, span := s.tracer.Start(ctx, "purchase.get")
	defer func() { telemetry.End(ctx, span, "purchase.get", err) }()

	p, err = s.load(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if p.BuyerID != userID && p.SellerID != userID {
		return nil, result.Unauthorized("Unauthorized")
	}
	return p, nil
}

func (s *service) ListBuyerPurchases(ctx context.Context, userID uuid.UUID) (out []*Purchase, err error) {
	ctx, span := s.tracer.Start(ctx, "purchase.list_buyer")
	defer func() { telemetry.End(ctx, span, "purchase.list_buyer", err) }()

	out, err = s.repo.ListByBuyer(ctx, userID)
	return out, result.Failed(err)
}

func (s *service) ListSellerPurchases(ctx context.Context, userID uuid.UUID) (out []*Purchase, err error) {
	ctx, span := s.tracer.Start(ctx, "purchase.list_seller")
	defer func() { telemetry.End(ctx, span, "purchase.list_seller", err) }()

	out, err = s.repo.ListBySeller(ctx, userID)
	return out, result.Failed(err)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*Purchase, error) {
	p, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, result.NotFound("Purchase not found")
	}
	if err != nil {
		return nil, result.Failed(err)
	}
	return p, nil
}

func (s *service) record(ctx context.Context, id uuid.UUID, expectedVersion int, eventType string, data any) {
	event, err := eventstore.NewEvent(eventType, data)
	if err == nil {
		err = s.events.Append(ctx, id, aggregateType, expectedVersion, event)
	}
	if err != nil {
		s.log.Errorw("Failed to record purchase event", "purchase_id", id, "event", eventType, "error", err)
	}
}

func (s *service) broadcast(d realtime.Delta, p *Purchase) {
	s.publisher.Publish(p.BuyerID, d)
	s.publisher.Publish(p.SellerID, d)
}
