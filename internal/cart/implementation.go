// internal/cart/implementation.go
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"booknest/internal/platform/telemetry"
	"booknest/internal/realtime"
	"booknest/internal/result"
)

type service struct {
	repo      Repository
	books     Books
	publisher realtime.Publisher
	log       *zap.SugaredLogger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService creates a new cart service instance.
func NewService(repo Repository, books Books, publisher realtime.Publisher, log *zap.SugaredLogger) Service {
	if publisher == nil {
		publisher = realtime.Discard
	}
	return &service{
		repo:      repo,
		books:     books,
		publisher: publisher,
		log:       log,
		tracer:    otel.Tracer("booknest/cart"),
		now:       time.Now,
	}
}

func (s *service) Add(ctx context.Context, userID, bookID uuid.UUID, itemType ItemType) (item *Item, err error) {
	ctx, span := s.tracer.Start(ctx, "cart.add")
	defer func() { telemetry.End(ctx, span, "cart.add", err) }()

	if !itemType.Valid() {
		return nil, result.InvalidInput("Cart type must be buy or rent")
	}
	if _, err := s.books.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	item, err = s.repo.Add(ctx, &Item{
		ID:        uuid.New(),
		UserID:    userID,
		BookID:    bookID,
		Type:      itemType,
		Quantity:  1,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, result.Failed(err)
	}

	if item.Quantity == 1 {
		s.publisher.Publish(userID, realtime.Insert(realtime.TopicCart, item.ID, item))
	} else {
		s.publisher.Publish(userID, realtime.Update(realtime.TopicCart, item.ID, item))
	}
	return item, nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (item *Item, err error) {
	ctx, span := s.tracer.Start(ctx, "cart.update_quantity")
	defer func() { telemetry.End(ctx, span, "cart.update_quantity", err) }()

	item, err = s.owned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		if err := s.remove(ctx, userID, itemID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := s.repo.SetQuantity(ctx, itemID, quantity); err != nil {
		return nil, s.mapErr(err)
	}
	item.Quantity = quantity
	s.publisher.Publish(userID, realtime.Update(realtime.TopicCart, item.ID, item))
	return item, nil
}

func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "cart.remove")
	defer func() { telemetry.End(ctx, span, "cart.remove", err) }()

	if _, err := s.owned(ctx, userID, itemID); err != nil {
		return err
	}
	return s.remove(ctx, userID, itemID)
}

func (s *service) remove(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.repo.Delete(ctx, itemID); err != nil {
		return s.mapErr(err)
	}
	s.publisher.Publish(userID, realtime.Delete(realtime.TopicCart, itemID))
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "cart.clear")
	defer func() { telemetry.End(ctx, span, "cart.clear", err) }()

	if err := s.repo.Clear(ctx, userID); err != nil {
		return result.Failed(err)
	}
	s.publisher.Publish(userID, realtime.Reset(realtime.TopicCart))
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) (items []*Item, err error) {
	ctx, span := s.tracer.Start(ctx, "cart.list")
	defer func() { telemetry.End(ctx, span, "cart.list", err) }()

	items, err = s.repo.List(ctx, userID)
	return items, result.Failed(err)
}

func (s *service) owned(ctx context.Context, userID, itemID uuid.UUID) (*Item, error) {
	item, err := s.repo.Get(ctx, itemID)
	if err != nil {
		return nil, s.mapErr(err)
	}
	if item.UserID != userID {
		return nil, result.Unauthorized("Unauthorized")
	}
	return item, nil
}

func (s *service) mapErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return result.NotFound("Cart item not found")
	}
	return result.Failed(err)
}
