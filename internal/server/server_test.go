package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/auth"
	"booknest/internal/cart"
	"booknest/internal/catalog"
	"booknest/internal/platform/config"
	"booknest/internal/platform/logger"
	"booknest/internal/realtime"
	"booknest/internal/result"
	"booknest/internal/session"
	"booknest/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		ServiceName:       "booknest",
		HTTPAddr:          ":0",
		Store:             config.StoreMemory,
		JWTSecret:         "test-secret",
		AccessTokenTTL:    time.Hour,
		RefreshTokenTTL:   24 * time.Hour,
		OTPTTL:            10 * time.Minute,
		AuthRatePerMinute: 100,
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	log := logger.Nop()
	objects := storage.NewDiskStore(t.TempDir(), "http://books.test", log)
	s, err := New(testConfig(), MemoryBackends(), auth.NewLogMailer(log), objects, log)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) result.Result[T] {
	t.Helper()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out result.Result[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func signUp(t *testing.T, ts *httptest.Server, email string) *session.Session {
	t.Helper()
	resp := call(t, ts, http.MethodPost, "/api/auth/signup", "", auth.SignUpInput{
		Email:    email,
		Password: "Passw0rdOK",
		FullName: "Test Reader",
	})
	out := decode[*session.Session](t, resp)
	require.True(t, out.Success, out.Error)
	require.NotEmpty(t, out.Data.AccessToken)
	return out.Data
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp := call(t, ts, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "booknest", body["service"])
}

func TestNewRequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""
	log := logger.Nop()
	_, err := New(cfg, MemoryBackends(), auth.NewLogMailer(log), storage.NewDiskStore(t.TempDir(), "", log), log)
	assert.Error(t, err)
}

func TestProtectedRoutes(t *testing.T) {
	_, ts := newTestServer(t)

	resp := call(t, ts, http.MethodGet, "/api/cart/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, ts, http.MethodGet, "/api/cart/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, ts, http.MethodGet, "/api/books/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	sess := signUp(t, ts, "reader@example.com")
	out := decode[[]*cart.Item](t, call(t, ts, http.MethodGet, "/api/cart/", sess.AccessToken, nil))
	assert.True(t, out.Success)
	assert.Empty(t, out.Data)
}

func TestWorkflowFailureUsesEnvelope(t *testing.T) {
	_, ts := newTestServer(t)
	sess := signUp(t, ts, "reader@example.com")

	resp := call(t, ts, http.MethodPost, "/api/cart/", sess.AccessToken, map[string]string{
		"book_id": "00000000-0000-0000-0000-000000000001",
		"type":    "buy",
	})
	out := decode[*cart.Item](t, resp)
	assert.False(t, out.Success)
	assert.Equal(t, result.KindNotFound, out.Kind)

	dup := call(t, ts, http.MethodPost, "/api/auth/signup", "", auth.SignUpInput{
		Email:    "Reader@Example.com",
		Password: "Passw0rdOK",
		FullName: "Again",
	})
	again := decode[*session.Session](t, dup)
	assert.False(t, again.Success)
	assert.Equal(t, result.KindAlreadyExists, again.Kind)
}

func dialWS(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestCartDeltasReachSocketAndSignOutDisconnects(t *testing.T) {
	s, ts := newTestServer(t)
	seller := signUp(t, ts, "seller@example.com")
	buyer := signUp(t, ts, "buyer@example.com")

	book := decode[*catalog.Book](t, call(t, ts, http.MethodPost, "/api/books/", seller.AccessToken, catalog.NewBook{
		Title:         "Middlemarch",
		Author:        "George Eliot",
		BookType:      catalog.TypeBuy,
		PriceBuy:      12,
		StockQuantity: 2,
	}))
	require.True(t, book.Success, book.Error)

	conn := dialWS(t, ts, buyer.AccessToken)
	require.Eventually(t, func() bool { return s.Hub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	added := decode[*cart.Item](t, call(t, ts, http.MethodPost, "/api/cart/", buyer.AccessToken, map[string]any{
		"book_id": book.Data.ID,
		"type":    cart.TypeBuy,
	}))
	require.True(t, added.Success, added.Error)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	d, err := realtime.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, realtime.TopicCart, d.Topic)
	assert.Equal(t, realtime.OpInsert, d.Op)
	assert.Equal(t, added.Data.ID.String(), d.ID)

	signedOut := decode[*result.OK](t, call(t, ts, http.MethodPost, "/api/auth/signout", buyer.AccessToken, nil))
	require.True(t, signedOut.Success, signedOut.Error)

	require.Eventually(t, func() bool { return s.Hub().ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	resp := call(t, ts, http.MethodGet, "/api/cart/", buyer.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + buyer.AccessToken
	_, wsResp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, wsResp)
	assert.Equal(t, http.StatusUnauthorized, wsResp.StatusCode)
}
