// internal/notification/implementation.go
package notification

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

const defaultListLimit = 20

type service struct {
	repo      Repository
	publisher realtime.Publisher
	log       *zap.SugaredLogger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService creates a new notification service instance.
func NewService(repo Repository, publisher realtime.Publisher, log *zap.SugaredLogger) Service {
	if publisher == nil {
		publisher = realtime.Discard
	}
	return &service{
		repo:      repo,
		publisher: publisher,
		log:       log,
		tracer:    otel.Tracer("booknest/notification"),
		now:       time.Now,
	}
}

func (s *service) Notify(ctx context.Context, note Note) {
	var err error
	ctx, span := s.tracer.Start(ctx, "notification.notify")
	defer func() { telemetry.End(ctx, span, "notification.notify", err) }()

	n := &Notification{
		ID:        uuid.New(),
		UserID:    note.UserID,
		Title:     note.Title,
		Message:   note.Message,
		Type:      note.Type,
		CreatedAt: s.now().UTC(),
	}
	if note.RelatedID != uuid.Nil {
		related := note.RelatedID
		n.RelatedItemID = &related
	}

	if err = s.repo.Create(ctx, n); err != nil {
		s.log.Errorw("Notification creation failed", "user_id", note.UserID, "title", note.Title, "error", err)
		return
	}
	s.publisher.Publish(n.UserID, realtime.Insert(realtime.TopicNotifications, n.ID, n))
}

func (s *service) List(ctx context.Context, userID uuid.UUID, limit int) (out []*Notification, err error) {
	ctx, span := s.tracer.Start(ctx, "notification.list")
	defer func() { telemetry.End(ctx, span, "notification.list", err) }()

	if limit <= 0 {
		limit = defaultListLimit
	}
	out, err = s.repo.List(ctx, userID, limit)
	return out, result.Failed(err)
}

func (s *service) MarkRead(ctx context.Context, userID, id uuid.UUID) (n *Notification, err error) {
	ctx, span := s.tracer.Start(ctx, "notification.mark_read")
	defer func() { telemetry.End(ctx, span, "notification.mark_read", err) }()

	n, err = s.addressedTo(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return nil, result.Failed(err)
	}
	n.IsRead = true
	s.publisher.Publish(userID, realtime.Update(realtime.TopicNotifications, n.ID, n))
	return n, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (count int, err error) {
	ctx, span := s.tracer.Start(ctx, "notification.unread_count")
	defer func() { telemetry.End(ctx, span, "notification.unread_count", err) }()

	count, err = s.repo.UnreadCount(ctx, userID)
	return count, result.Failed(err)
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "notification.delete")
	defer func() { telemetry.End(ctx, span, "notification.delete", err) }()

	if _, err := s.addressedTo(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return result.Failed(err)
	}
	s.publisher.Publish(userID, realtime.Delete(realtime.TopicNotifications, id))
	return nil
}

func (s *service) addressedTo(ctx context.Context, userID, id uuid.UUID) (*Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, result.NotFound("Notification not found")
	}
	if err != nil {
		return nil, result.Failed(err)
	}
	if n.UserID != userID {
		return nil, result.Unauthorized("Unauthorized")
	}
	return n, nil
}
