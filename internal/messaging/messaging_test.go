package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/notification"
	"booknest/internal/platform/logger"
	"booknest/internal/profile"
	"booknest/internal/realtime"
	"booknest/internal/result"
	"booknest/internal/session"
)

type notes struct {
	mu  sync.Mutex
	all []notification.Note
}

func (n *notes) Notify(_ context.Context, note notification.Note) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.all = append(n.all, note)
}

type directory map[uuid.UUID]*profile.Profile

func (d directory) GetProfile(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	p, ok := d[id]
	if !ok {
		return nil, result.NotFound("Profile not found")
	}
	return p, nil
}

type fixture struct {
	svc   Service
	notes *notes
	rec   *realtime.Recorder
	dir   directory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{notes: &notes{}, rec: realtime.NewRecorder(), dir: directory{}}
	f.svc = NewService(NewMemoryRepository(), f.dir, f.notes, f.rec, logger.Nop())

	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.(*service).now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return f
}

func (f *fixture) send(t *testing.T, from, to uuid.UUID, text string) *Message {
	t.Helper()
	m, err := f.svc.SendPrivateMessage(context.Background(), Draft{SenderID: from, RecipientID: to, Message: text})
	require.NoError(t, err)
	return m
}

func TestSendNotifiesRecipientAndPushesToBoth(t *testing.T) {
	f := newFixture(t)
	alice, bob := uuid.New(), uuid.New()
	book := uuid.New()

	m, err := f.svc.SendPrivateMessage(context.Background(), Draft{SenderID: alice, RecipientID: bob, Message: "Is it still available?", BookID: &book})
	require.NoError(t, err)
	assert.False(t, m.IsRead)
	require.NotNil(t, m.BookID)
	assert.Equal(t, book, *m.BookID)

	require.Len(t, f.notes.all, 1)
	assert.Equal(t, bob, f.notes.all[0].UserID)
	assert.Equal(t, "New Message", f.notes.all[0].Title)
	assert.Equal(t, "You have a new private message", f.notes.all[0].Message)

	for _, user := range []uuid.UUID{alice, bob} {
		deltas := f.rec.For(user)
		require.Len(t, deltas, 1)
		assert.Equal(t, realtime.TopicMessages, deltas[0].Topic)
		assert.Equal(t, realtime.OpInsert, deltas[0].Op)
	}
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t)
	alice := uuid.New()

	_, err := f.svc.SendPrivateMessage(context.Background(), Draft{SenderID: alice, RecipientID: uuid.New(), Message: "  "})
	assert.ErrorIs(t, err, result.ErrInvalidInput)

	_, err = f.svc.SendPrivateMessage(context.Background(), Draft{SenderID: alice, RecipientID: alice, Message: "hi"})
	assert.ErrorIs(t, err, result.ErrInvalidInput)
	assert.Empty(t, f.notes.all)
}

func TestGetConversationOrdersAndMarksRead(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	f.send(t, alice, bob, "one")
	f.send(t, bob, alice, "two")
	f.send(t, alice, bob, "three")
	f.send(t, carol, bob, "elsewhere")

	thread, err := f.svc.GetConversation(context.Background(), bob, alice)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, "one", thread[0].Message)
	assert.Equal(t, "two", thread[1].Message)
	assert.Equal(t, "three", thread[2].Message)

	assert.True(t, thread[0].IsRead)
	assert.NotNil(t, thread[0].ReadAt)
	assert.False(t, thread[1].IsRead, "bob's own message stays unread until alice opens it")

	count, err := f.svc.UnreadCount(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only carol's message is left")

	count, err = f.svc.UnreadCount(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetConversationPublishesReadReceipts(t *testing.T) {
	f := newFixture(t)
	alice, bob := uuid.New(), uuid.New()
	m := f.send(t, alice, bob, "hello")

	_, err := f.svc.GetConversation(context.Background(), bob, alice)
	require.NoError(t, err)

	deltas := f.rec.For(alice)
	require.Len(t, deltas, 2)
	assert.Equal(t, realtime.OpUpdate, deltas[1].Op)
	assert.Equal(t, m.ID.String(), deltas[1].ID)

	_, err = f.svc.GetConversation(context.Background(), bob, alice)
	require.NoError(t, err)
	assert.Len(t, f.rec.For(alice), 2, "nothing left to mark")
}

func TestListConversations(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	f.dir[bob] = &profile.Profile{ID: bob, FullName: "Bob"}

	f.send(t, bob, alice, "hi alice")
	f.send(t, bob, alice, "are you there")
	f.send(t, alice, carol, "hello carol")
	last := f.send(t, alice, bob, "yes")

	convs, err := f.svc.ListConversations(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	assert.Equal(t, bob, convs[0].PartnerID)
	assert.Equal(t, last.ID, convs[0].LastMessage.ID)
	assert.Equal(t, 2, convs[0].UnreadCount)
	require.NotNil(t, convs[0].Partner)
	assert.Equal(t, "Bob", convs[0].Partner.FullName)

	assert.Equal(t, carol, convs[1].PartnerID)
	assert.Equal(t, 0, convs[1].UnreadCount)
	assert.Nil(t, convs[1].Partner)
}

func TestSendRoute(t *testing.T) {
	f := newFixture(t)
	alice, bob := uuid.New(), uuid.New()

	router := chi.NewRouter()
	router.Route("/api/messages", NewHandler(f.svc).Routes)

	body := `{"recipient_id":"` + bob.String() + `","message":"hello"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages/", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/messages/", strings.NewReader(body))
	req = req.WithContext(session.NewContext(req.Context(), &session.Session{UserID: alice}))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out result.Result[*Message]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Success)
	require.NotNil(t, out.Data)
	assert.Equal(t, alice, out.Data.SenderID)
	assert.Equal(t, bob, out.Data.RecipientID)
}
