package realtime

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/platform/logger"
)

type tokenTable map[string]uuid.UUID

func (t tokenTable) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	id, ok := t[token]
	if !ok {
		return uuid.Nil, errors.New("unknown token")
	}
	return id, nil
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubDeliversOnlyToAddressedUser(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	hub := NewHub(logger.Nop())
	srv := httptest.NewServer(hub.ServeWS(tokenTable{"a": alice, "b": bob}))
	defer srv.Close()

	aliceConn := dial(t, srv, "a")
	bobConn := dial(t, srv, "b")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	itemID := uuid.New()
	hub.Publish(alice, Insert(TopicCart, itemID, map[string]any{"quantity": 1}))

	aliceConn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := aliceConn.ReadMessage()
	require.NoError(t, err)

	d, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TopicCart, d.Topic)
	assert.Equal(t, OpInsert, d.Op)
	assert.Equal(t, itemID.String(), d.ID)

	bobConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = bobConn.ReadMessage()
	assert.Error(t, err, "bob must not receive alice's delta")
}

func TestHubRejectsUnknownToken(t *testing.T) {
	hub := NewHub(logger.Nop())
	srv := httptest.NewServer(hub.ServeWS(tokenTable{}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHubDisconnectClosesConnections(t *testing.T) {
	user := uuid.New()
	hub := NewHub(logger.Nop())
	srv := httptest.NewServer(hub.ServeWS(tokenTable{"u": user}))
	defer srv.Close()

	conn := dial(t, srv, "u")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Disconnect(user)
	assert.Equal(t, 0, hub.ClientCount())
	assert.Empty(t, hub.ActiveUsers())

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))

	assert.Equal(t, 0, hub.SendToUser(user, []byte("late")))
}

func TestMirrorAppliesDeltas(t *testing.T) {
	m := NewMirror()
	first, second := uuid.New(), uuid.New()

	require.NoError(t, m.Apply(Insert(TopicWishlist, first, map[string]string{"title": "Dune"})))
	require.NoError(t, m.Apply(Insert(TopicWishlist, second, map[string]string{"title": "Emma"})))
	assert.Equal(t, 2, m.Len(TopicWishlist))

	require.NoError(t, m.Apply(Update(TopicWishlist, first, map[string]string{"title": "Dune Messiah"})))
	raw, ok := m.Get(TopicWishlist, first.String())
	require.True(t, ok)
	assert.JSONEq(t, `{"title":"Dune Messiah"}`, string(raw))

	require.NoError(t, m.Apply(Delete(TopicWishlist, second)))
	assert.Equal(t, []string{first.String()}, m.IDs(TopicWishlist))

	require.NoError(t, m.Apply(Reset(TopicWishlist)))
	assert.Equal(t, 0, m.Len(TopicWishlist))

	assert.Error(t, m.Apply(Delta{Topic: TopicCart, Op: "upsert", ID: "x"}))
}

func TestMirrorAppliesDecodedWireDeltas(t *testing.T) {
	m := NewMirror()
	id := uuid.New()

	data, err := Encode(Insert(TopicNotifications, id, map[string]any{"title": "Rental Approved"}))
	require.NoError(t, err)
	d, err := Decode(data)
	require.NoError(t, err)
	require.NoError(t, m.Apply(d))

	raw, ok := m.Get(TopicNotifications, id.String())
	require.True(t, ok)
	assert.JSONEq(t, `{"title":"Rental Approved"}`, string(raw))
}
