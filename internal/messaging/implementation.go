// internal/messaging/implementation.go
package messaging

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"booknest/internal/notification"
	"booknest/internal/platform/telemetry"
	"booknest/internal/realtime"
	"booknest/internal/result"
)

type service struct {
	repo      Repository
	profiles  Profiles
	notifier  Notifier
	publisher realtime.Publisher
	log       *zap.SugaredLogger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService creates a new messaging service instance. profiles may be nil,
// in which case conversations carry only the partner id.
func NewService(repo Repository, profiles Profiles, notifier Notifier, publisher realtime.Publisher, log *zap.SugaredLogger) Service {
	if publisher == nil {
		publisher = realtime.Discard
	}
	return &service{
		repo:      repo,
		profiles:  profiles,
		notifier:  notifier,
		publisher: publisher,
		log:       log,
		tracer:    otel.Tracer("booknest/messaging"),
		now:       time.Now,
	}
}

func (s *service) SendPrivateMessage(ctx context.Context, draft Draft) (m *Message, err error) {
	ctx, span := s.tracer.Start(ctx, "messaging.send")
	defer func() { telemetry.End(ctx, span, "messaging.send", err) }()

	if strings.TrimSpace(draft.Message) == "" {
		return nil, result.InvalidInput("Message required")
	}
	if draft.RecipientID == uuid.Nil || draft.RecipientID == draft.SenderID {
		return nil, result.InvalidInput("Invalid recipient")
	}

	m = &Message{
		ID:          uuid.New(),
		SenderID:    draft.SenderID,
		RecipientID: draft.RecipientID,
		Message:     draft.Message,
		BookID:      draft.BookID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, result.Failed(err)
	}

	s.notifier.Notify(ctx, notification.Note{
		UserID:    m.RecipientID,
		Title:     "New Message",
		Message:   "You have a new private message",
		Type:      notification.TypeMessage,
		RelatedID: m.ID,
	})
	d := realtime.Insert(realtime.TopicMessages, m.ID, m)
	s.publisher.Publish(m.SenderID, d)
	s.publisher.Publish(m.RecipientID, d)
	return m, nil
}

func (s *service) GetConversation(ctx context.Context, userID, otherID uuid.UUID) (out []*Message, err error) {
	ctx, span := s.tracer.Start(ctx, "messaging.get_conversation")
	defer func() { telemetry.End(ctx, span, "messaging.get_conversation", err) }()

	out, err = s.repo.Conversation(ctx, userID, otherID)
	if err != nil {
		return nil, result.Failed(err)
	}

	readAt := s.now().UTC()
	ids, err := s.repo.MarkRead(ctx, userID, otherID, readAt)
	if err != nil {
		s.log.Warnw("Failed to mark conversation read", "user_id", userID, "other_id", otherID, "error", err)
		return out, nil
	}
	if len(ids) == 0 {
		return out, nil
	}

	marked := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	for _, m := range out {
		if !marked[m.ID] {
			continue
		}
		m.IsRead = true
		m.ReadAt = &readAt
		d := realtime.Update(realtime.TopicMessages, m.ID, m)
		s.publisher.Publish(userID, d)
		s.publisher.Publish(otherID, d)
	}
	return out, nil
}

func (s *service) ListConversations(ctx context.Context, userID uuid.UUID) (out []*Conversation, err error) {
	ctx, span := s.tracer.Start(ctx, "messaging.list_conversations")
	defer func() { telemetry.End(ctx, span, "messaging.list_conversations", err) }()

	latest, err := s.repo.Latest(ctx, userID)
	if err != nil {
		return nil, result.Failed(err)
	}
	unread, err := s.repo.UnreadBySender(ctx, userID)
	if err != nil {
		return nil, result.Failed(err)
	}

	out = make([]*Conversation, 0, len(latest))
	for _, m := range latest {
		partnerID := m.partner(userID)
		c := &Conversation{PartnerID: partnerID, LastMessage: m, UnreadCount: unread[partnerID]}
		if s.profiles != nil {
			if p, err := s.profiles.GetProfile(ctx, partnerID); err == nil {
				c.Partner = p
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (count int, err error) {
	ctx, span := s.tracer.Start(ctx, "messaging.unread_count")
	defer func() { telemetry.End(ctx, span, "messaging.unread_count", err) }()

	count, err = s.repo.UnreadCount(ctx, userID)
	return count, result.Failed(err)
}
