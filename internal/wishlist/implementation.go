// internal/wishlist/implementation.go
package wishlist

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

// NewService creates a new wishlist service instance.
func NewService(repo Repository, books Books, publisher realtime.Publisher, log *zap.SugaredLogger) Service {
	if publisher == nil {
		publisher = realtime.Discard
	}
	return &service{
		repo:      repo,
		books:     books,
		publisher: publisher,
		log:       log,
		tracer:    otel.Tracer("booknest/wishlist"),
		now:       time.Now,
	}
}

func (s *service) Add(ctx context.Context, userID, bookID uuid.UUID) (item *Item, err error) {
	ctx, span := s.tracer.Start(ctx, "wishlist.add")
	defer func() { telemetry.End(ctx, span, "wishlist.add", err) }()

	if _, err := s.books.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	item = &Item{ID: uuid.New(), UserID: userID, BookID: bookID, AddedAt: s.now().UTC()}
	if err := s.repo.Add(ctx, item); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, result.AlreadyExists("Already in wishlist")
		}
		return nil, result.Failed(err)
	}
	s.publisher.Publish(userID, realtime.Insert(realtime.TopicWishlist, item.ID, item))
	return item, nil
}

func (s *service) Remove(ctx context.Context, userID, bookID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "wishlist.remove")
	defer func() { telemetry.End(ctx, span, "wishlist.remove", err) }()

	item, err := s.repo.Remove(ctx, userID, bookID)
	if errors.Is(err, ErrNotFound) {
		return result.NotFound("Not in wishlist")
	}
	if err != nil {
		return result.Failed(err)
	}
	s.publisher.Publish(userID, realtime.Delete(realtime.TopicWishlist, item.ID))
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) (items []*Item, err error) {
	ctx, span := s.tracer.Start(ctx, "wishlist.list")
	defer func() { telemetry.End(ctx, span, "wishlist.list", err) }()

	items, err = s.repo.List(ctx, userID)
	return items, result.Failed(err)
}

func (s *service) Contains(ctx context.Context, userID, bookID uuid.UUID) (ok bool, err error) {
	ctx, span := s.tracer.Start(ctx, "wishlist.contains")
	defer func() { telemetry.End(ctx, span, "wishlist.contains", err) }()

	ok, err = s.repo.Contains(ctx, userID, bookID)
	return ok, result.Failed(err)
}
