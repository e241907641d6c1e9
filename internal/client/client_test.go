package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/auth"
	"booknest/internal/cart"
	"booknest/internal/catalog"
	"booknest/internal/platform/config"
	"booknest/internal/platform/logger"
	"booknest/internal/realtime"
	"booknest/internal/result"
	"booknest/internal/server"
	"booknest/internal/session"
	"booknest/internal/storage"
)

func startServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	log := logger.Nop()
	cfg := &config.Config{
		ServiceName:       "booknest",
		Store:             config.StoreMemory,
		JWTSecret:         "client-test-secret",
		AccessTokenTTL:    time.Hour,
		RefreshTokenTTL:   24 * time.Hour,
		OTPTTL:            10 * time.Minute,
		AuthRatePerMinute: 100,
	}
	objects := storage.NewDiskStore(t.TempDir(), "http://books.test", log)
	s, err := server.New(cfg, server.MemoryBackends(), auth.NewLogMailer(log), objects, log)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts.URL
}

func signedUp(t *testing.T, baseURL, email string) *Client {
	t.Helper()
	c := New(baseURL, nil, logger.Nop())
	_, err := c.SignUp(context.Background(), auth.SignUpInput{
		Email:    email,
		Password: "Sup3rSecret",
		FullName: "Client Tester",
	})
	require.NoError(t, err)
	return c
}

func TestSignInLifecycle(t *testing.T) {
	_, baseURL := startServer(t)
	ctx := context.Background()

	c := signedUp(t, baseURL, "lifecycle@example.com")
	sess, state := c.Session()
	assert.Equal(t, session.Authenticated, state)
	assert.NotEmpty(t, sess.RefreshToken)

	require.NoError(t, c.SignOut(ctx))
	_, state = c.Session()
	assert.Equal(t, session.Anonymous, state)

	_, err := c.Cart(ctx)
	assert.ErrorIs(t, err, ErrSignedOut)

	_, err = c.SignIn(ctx, "lifecycle@example.com", "wrong-password")
	assert.ErrorIs(t, err, result.ErrUnauthorized)
	_, state = c.Session()
	assert.Equal(t, session.Anonymous, state)

	_, err = c.SignIn(ctx, "lifecycle@example.com", "Sup3rSecret")
	require.NoError(t, err)
	_, state = c.Session()
	assert.Equal(t, session.Authenticated, state)
}

func TestExpiredSessionRefreshes(t *testing.T) {
	_, baseURL := startServer(t)
	ctx := context.Background()
	c := signedUp(t, baseURL, "refresh@example.com")

	clock := time.Now()
	c.session = session.NewMachine(func() time.Time { return clock })
	sess, err := c.SignIn(ctx, "refresh@example.com", "Sup3rSecret")
	require.NoError(t, err)

	clock = sess.ExpiresAt.Add(time.Second)
	_, state := c.Session()
	require.Equal(t, session.Expired, state)

	clock = time.Now()
	_, err = c.Cart(ctx)
	require.NoError(t, err)
	fresh, state := c.Session()
	assert.Equal(t, session.Authenticated, state)
	assert.NotEqual(t, sess.RefreshToken, fresh.RefreshToken)
}

func TestWorkflowErrorsKeepKind(t *testing.T) {
	_, baseURL := startServer(t)
	c := signedUp(t, baseURL, "kinds@example.com")

	_, err := c.AddBook(context.Background(), catalog.NewBook{Title: "No author", BookType: catalog.TypeBuy})
	assert.ErrorIs(t, err, result.ErrInvalidInput)

	_, err = c.SearchBooks(context.Background(), "")
	assert.Error(t, err)
}

func TestWatchMirrorsCart(t *testing.T) {
	s, baseURL := startServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seller := signedUp(t, baseURL, "seller@example.com")
	buyer := signedUp(t, baseURL, "buyer@example.com")

	book, err := seller.AddBook(ctx, catalog.NewBook{
		Title:         "Persuasion",
		Author:        "Jane Austen",
		BookType:      catalog.TypeBuy,
		PriceBuy:      8,
		StockQuantity: 3,
	})
	require.NoError(t, err)

	found, err := buyer.SearchBooks(ctx, "austen")
	require.NoError(t, err)
	require.Len(t, found, 1)

	mirror := realtime.NewMirror()
	done := make(chan error, 1)
	go func() { done <- buyer.Watch(ctx, mirror) }()
	require.Eventually(t, func() bool { return s.Hub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	item, err := buyer.AddToCart(ctx, book.ID, cart.TypeBuy)
	require.NoError(t, err)
	_, err = buyer.AddToCart(ctx, book.ID, cart.TypeBuy)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		raw, ok := mirror.Get(realtime.TopicCart, item.ID.String())
		if !ok {
			return false
		}
		var row cart.Item
		return json.Unmarshal(raw, &row) == nil && row.Quantity == 2
	}, 2*time.Second, 10*time.Millisecond)

	items, err := buyer.Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{item.ID.String()}, mirror.IDs(realtime.TopicCart))
	require.Len(t, items, 1)

	require.NoError(t, buyer.SignOut(ctx))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after sign-out")
	}
}
