package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/platform/logger"
	"booknest/internal/realtime"
	"booknest/internal/result"
)

type failingRepo struct {
	*MemoryRepository
}

func (failingRepo) Create(context.Context, *Notification) error {
	return errors.New("connection refused")
}

func TestNotifyStoresAndPublishes(t *testing.T) {
	repo := NewMemoryRepository()
	rec := realtime.NewRecorder()
	svc := NewService(repo, rec, logger.Nop())
	user, rental := uuid.New(), uuid.New()

	svc.Notify(context.Background(), Note{UserID: user, Title: "Rental Request", Message: "New rental request for Dune.", Type: TypeRental, RelatedID: rental})
	svc.Notify(context.Background(), Note{UserID: user, Title: "New Message", Message: "You have a new private message", Type: TypeMessage})

	list, err := svc.List(context.Background(), user, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	var related *uuid.UUID
	for _, n := range list {
		if n.Type == TypeRental {
			related = n.RelatedItemID
		}
	}
	require.NotNil(t, related)
	assert.Equal(t, rental, *related)

	deltas := rec.For(user)
	require.Len(t, deltas, 2)
	assert.Equal(t, realtime.TopicNotifications, deltas[0].Topic)
	assert.Equal(t, realtime.OpInsert, deltas[0].Op)

	count, err := svc.UnreadCount(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNotifySwallowsStoreFailure(t *testing.T) {
	rec := realtime.NewRecorder()
	svc := NewService(failingRepo{NewMemoryRepository()}, rec, logger.Nop())
	user := uuid.New()

	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), Note{UserID: user, Title: "t", Message: "m"})
	})
	assert.Empty(t, rec.For(user))
}

func TestListIsNewestFirstAndLimited(t *testing.T) {
	repo := NewMemoryRepository()
	user := uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, repo.Create(context.Background(), &Notification{
			ID: uuid.New(), UserID: user, Title: string(rune('a' + i)), CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	svc := NewService(repo, nil, logger.Nop())

	list, err := svc.List(context.Background(), user, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "e", list[0].Title)
	assert.Equal(t, "c", list[2].Title)
}

func TestMarkReadAndDeleteAreScopedToAddressee(t *testing.T) {
	repo := NewMemoryRepository()
	rec := realtime.NewRecorder()
	svc := NewService(repo, rec, logger.Nop())
	owner, other := uuid.New(), uuid.New()

	svc.Notify(context.Background(), Note{UserID: owner, Title: "Book Returned", Message: "m", Type: TypeRental})
	list, err := svc.List(context.Background(), owner, 10)
	require.NoError(t, err)
	id := list[0].ID

	_, err = svc.MarkRead(context.Background(), other, id)
	assert.ErrorIs(t, err, result.ErrUnauthorized)
	assert.ErrorIs(t, svc.Delete(context.Background(), other, id), result.ErrUnauthorized)

	n, err := svc.MarkRead(context.Background(), owner, id)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	count, err := svc.UnreadCount(context.Background(), owner)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, svc.Delete(context.Background(), owner, id))
	_, err = svc.MarkRead(context.Background(), owner, id)
	assert.ErrorIs(t, err, result.ErrNotFound)

	ops := []realtime.Op{}
	for _, d := range rec.For(owner) {
		ops = append(ops, d.Op)
	}
	assert.Equal(t, []realtime.Op{realtime.OpInsert, realtime.OpUpdate, realtime.OpDelete}, ops)
}
