package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/auth"
	"booknest/internal/catalog"
	"booknest/internal/platform/database"
	"booknest/internal/platform/logger"
	"booknest/internal/purchase"
	"booknest/internal/rental"
	"booknest/internal/storage"
)

// newPostgresServer runs the full stack on the database named by
// BOOKNEST_TEST_DATABASE_URL, skipping when it is unset.
func newPostgresServer(t *testing.T) *httptest.Server {
	t.Helper()
	dsn := os.Getenv("BOOKNEST_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BOOKNEST_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	log := logger.Nop()
	db, err := database.Open(ctx, "pgx", dsn, log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	_, err = db.ExecContext(ctx, `TRUNCATE TABLE events, community_reactions, community_comments,
		community_posts, private_messages, wishlist, cart, notifications, purchases, donations,
		rentals, books, revoked_sessions, refresh_tokens, one_time_codes, credentials, profiles CASCADE`)
	require.NoError(t, err)

	objects := storage.NewDiskStore(t.TempDir(), "http://books.test", log)
	s, err := New(testConfig(), PostgresBackends(db), auth.NewLogMailer(log), objects, log)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts
}

func TestPostgresRentalFlow(t *testing.T) {
	ts := newPostgresServer(t)
	owner := signUp(t, ts, "owner@example.com")
	renter := signUp(t, ts, "renter@example.com")

	book := decode[*catalog.Book](t, call(t, ts, http.MethodPost, "/api/books/", owner.AccessToken, catalog.NewBook{
		Title:         "Pride and Prejudice",
		Author:        "Jane Austen",
		ISBN:          "9780141439518",
		BookType:      catalog.TypeRent,
		PricePerDay:   1.5,
		StockQuantity: 5,
	}))
	require.True(t, book.Success, book.Error)

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	requested := decode[*rental.Rental](t, call(t, ts, http.MethodPost, "/api/rentals/", renter.AccessToken, rental.Request{
		BookID:    book.Data.ID,
		StartDate: start,
		EndDate:   start.Add(72 * time.Hour),
	}))
	require.True(t, requested.Success, requested.Error)

	approved := decode[*rental.Rental](t, call(t, ts, http.MethodPost, "/api/rentals/approve", owner.AccessToken, map[string]any{
		"rentalId": requested.Data.ID,
	}))
	require.True(t, approved.Success, approved.Error)
	assert.Equal(t, rental.StatusActive, approved.Data.Status)

	got := decode[*catalog.Book](t, call(t, ts, http.MethodGet, fmt.Sprintf("/api/books/%s", book.Data.ID), "", nil))
	assert.Equal(t, 4, got.Data.AvailableQuantity)

	returned := decode[*rental.Rental](t, call(t, ts, http.MethodPost, fmt.Sprintf("/api/rentals/%s/return", requested.Data.ID), renter.AccessToken, nil))
	require.True(t, returned.Success, returned.Error)
	assert.Equal(t, rental.StatusReturned, returned.Data.Status)

	got = decode[*catalog.Book](t, call(t, ts, http.MethodGet, fmt.Sprintf("/api/books/%s", book.Data.ID), "", nil))
	assert.Equal(t, 5, got.Data.AvailableQuantity)
}

func TestPostgresConcurrentPurchasesPreventDoubleSelling(t *testing.T) {
	ts := newPostgresServer(t)
	seller := signUp(t, ts, "seller@example.com")

	book := decode[*catalog.Book](t, call(t, ts, http.MethodPost, "/api/books/", seller.AccessToken, catalog.NewBook{
		Title:         "The Great Gatsby",
		Author:        "F. Scott Fitzgerald",
		BookType:      catalog.TypeBuy,
		PriceBuy:      9,
		StockQuantity: 1,
	}))
	require.True(t, book.Success, book.Error)

	var tokens []string
	for i := range 10 {
		tokens = append(tokens, signUp(t, ts, fmt.Sprintf("member%d@example.com", i)).AccessToken)
	}

	var wg sync.WaitGroup
	var placed atomic.Int64
	for _, token := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := call(t, ts, http.MethodPost, "/api/purchases/", token, purchase.Order{BookID: book.Data.ID, Quantity: 1})
			if resp.StatusCode != http.StatusOK {
				return
			}
			out := decode[*purchase.Purchase](t, resp)
			if out.Success {
				placed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), placed.Load(), "only one concurrent purchase should succeed")

	got := decode[*catalog.Book](t, call(t, ts, http.MethodGet, fmt.Sprintf("/api/books/%s", book.Data.ID), "", nil))
	assert.Equal(t, 0, got.Data.AvailableQuantity)
}
