package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"booknest/internal/platform/logger"
	"booknest/internal/result"
	"booknest/internal/storage"
)

func newTestService(t *testing.T) (Service, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	objects := storage.NewDiskStore(t.TempDir(), "http://books.test", logger.Nop())
	return NewService(repo, objects, logger.Nop()), repo
}

func addBook(t *testing.T, svc Service, owner uuid.UUID, in NewBook) *Book {
	t.Helper()
	b, err := svc.AddBook(context.Background(), owner, in)
	require.NoError(t, err)
	return b
}

func TestAddBookDefaultsAvailableQuantity(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()

	b := addBook(t, svc, owner, NewBook{Title: "Dune", Author: "Herbert", BookType: TypeRent, PricePerDay: 2.99})
	assert.Equal(t, 1, b.StockQuantity)
	assert.Equal(t, 1, b.AvailableQuantity)
	assert.Equal(t, StatusActive, b.Status)

	b = addBook(t, svc, owner, NewBook{Title: "Emma", Author: "Austen", BookType: TypeBuy, PriceBuy: 9, StockQuantity: 4})
	assert.Equal(t, 4, b.AvailableQuantity)
}

func TestAddBookValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.AddBook(context.Background(), uuid.New(), NewBook{Title: "X", Author: "Y", BookType: "lend"})
	assert.ErrorIs(t, err, result.ErrInvalidInput)

	_, err = svc.AddBook(context.Background(), uuid.New(), NewBook{Author: "Y", BookType: TypeBuy})
	assert.ErrorIs(t, err, result.ErrInvalidInput)
}

func TestListBooksFilters(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	addBook(t, svc, owner, NewBook{Title: "Cheap rent", Author: "A", Category: "Fiction", BookType: TypeRent, PricePerDay: 1})
	addBook(t, svc, owner, NewBook{Title: "Pricey rent", Author: "A", Category: "Fiction", BookType: TypeRent, PricePerDay: 5})
	addBook(t, svc, owner, NewBook{Title: "For sale", Author: "B", Category: "Science", BookType: TypeBuy, PriceBuy: 20})
	hidden := addBook(t, svc, owner, NewBook{Title: "Hidden", Author: "C", Category: "Fiction", BookType: TypeRent, PricePerDay: 1})

	inactive := StatusInactive
	_, err := svc.UpdateBook(context.Background(), hidden.ID, owner, BookUpdate{Status: &inactive})
	require.NoError(t, err)

	books, err := svc.ListBooks(context.Background(), Filter{Category: "Fiction"})
	require.NoError(t, err)
	assert.Len(t, books, 2)

	maxPrice := 3.0
	books, err = svc.ListBooks(context.Background(), Filter{BookType: TypeRent, MaxPrice: &maxPrice})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Cheap rent", books[0].Title)

	minPrice := 10.0
	books, err = svc.ListBooks(context.Background(), Filter{MinPrice: &minPrice})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "For sale", books[0].Title)

	books, err = svc.ListBooks(context.Background(), Filter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, books, 1)

	_, err = svc.ListBooks(context.Background(), Filter{MinPrice: &minPrice, MaxPrice: &maxPrice})
	assert.ErrorIs(t, err, result.ErrInvalidInput)
}

func TestSearchIsCaseInsensitiveAndSkipsInactive(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	addBook(t, svc, owner, NewBook{Title: "The Hobbit", Author: "Tolkien", Category: "Fantasy", BookType: TypeBuy})
	addBook(t, svc, owner, NewBook{Title: "Silmarillion", Author: "J.R.R. Tolkien", Category: "Fantasy", BookType: TypeBuy})
	off := addBook(t, svc, owner, NewBook{Title: "Tolkien letters", Author: "Carpenter", BookType: TypeBuy})

	inactive := StatusInactive
	_, err := svc.UpdateBook(context.Background(), off.ID, owner, BookUpdate{Status: &inactive})
	require.NoError(t, err)

	books, err := svc.Search(context.Background(), "TOLKIEN")
	require.NoError(t, err)
	assert.Len(t, books, 2)

	books, err = svc.Search(context.Background(), "fantasy")
	require.NoError(t, err)
	assert.Len(t, books, 2)

	_, err = svc.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, result.ErrInvalidInput)
}

func TestUpdateAndDeleteRequireOwner(t *testing.T) {
	svc, _ := newTestService(t)
	owner, stranger := uuid.New(), uuid.New()
	b := addBook(t, svc, owner, NewBook{Title: "Mine", Author: "Me", BookType: TypeBuy, PriceBuy: 3})

	title := "Stolen"
	_, err := svc.UpdateBook(context.Background(), b.ID, stranger, BookUpdate{Title: &title})
	assert.ErrorIs(t, err, result.ErrUnauthorized)
	assert.ErrorIs(t, svc.DeleteBook(context.Background(), b.ID, stranger), result.ErrUnauthorized)

	got, err := svc.GetBook(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)

	require.NoError(t, svc.DeleteBook(context.Background(), b.ID, owner))
	_, err = svc.GetBook(context.Background(), b.ID)
	assert.ErrorIs(t, err, result.ErrNotFound)
}

func TestUpdateStockKeepsCopiesOut(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	b := addBook(t, svc, owner, NewBook{Title: "T", Author: "A", BookType: TypeRent, StockQuantity: 3})

	_, err := svc.AdjustQuantity(context.Background(), b.ID, -2)
	require.NoError(t, err)

	stock := 5
	got, err := svc.UpdateBook(context.Background(), b.ID, owner, BookUpdate{StockQuantity: &stock})
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQuantity)
	assert.Equal(t, 3, got.AvailableQuantity)
}

func TestAdjustQuantityNeverNegative(t *testing.T) {
	svc, _ := newTestService(t)
	b := addBook(t, svc, uuid.New(), NewBook{Title: "T", Author: "A", BookType: TypeRent})

	n, err := svc.AdjustQuantity(context.Background(), b.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = svc.AdjustQuantity(context.Background(), b.ID, -1)
	assert.ErrorIs(t, err, result.ErrInsufficientStock)

	_, err = svc.AdjustQuantity(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, result.ErrNotFound)
}

func TestConcurrentDecrementsStopAtZero(t *testing.T) {
	svc, _ := newTestService(t)
	b := addBook(t, svc, uuid.New(), NewBook{Title: "T", Author: "A", BookType: TypeBuy, StockQuantity: 5})

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AdjustQuantity(context.Background(), b.ID, -1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	got, err := svc.GetBook(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableQuantity)
}

func TestAdjustQuantityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		repo := NewMemoryRepository()
		id := uuid.New()
		start := rapid.IntRange(0, 10).Draw(t, "start")
		require.NoError(t, repo.Create(context.Background(), &Book{ID: id, AvailableQuantity: start, Status: StatusActive}))

		want := start
		for _, delta := range rapid.SliceOf(rapid.IntRange(-3, 3)).Draw(t, "deltas") {
			n, err := repo.AdjustQuantity(context.Background(), id, delta)
			if want+delta < 0 {
				require.ErrorIs(t, err, ErrInsufficientQuantity)
				require.Equal(t, want, n)
				continue
			}
			require.NoError(t, err)
			want += delta
			require.Equal(t, want, n)
		}
	})
}

func TestMarkForDonation(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	b := addBook(t, svc, owner, NewBook{Title: "T", Author: "A", BookType: TypeBuy})
	inactive := StatusInactive
	_, err := svc.UpdateBook(context.Background(), b.ID, owner, BookUpdate{Status: &inactive})
	require.NoError(t, err)

	got, err := svc.MarkForDonation(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, TypeDonate, got.BookType)
	assert.Equal(t, StatusActive, got.Status)
}

func TestUploadCover(t *testing.T) {
	svc, _ := newTestService(t)
	user := uuid.New()

	url, err := svc.UploadCover(context.Background(), user, "../../cover.png", strings.NewReader("img"))
	require.NoError(t, err)
	prefix := "http://books.test/storage/book-covers/" + user.String() + "/"
	assert.True(t, strings.HasPrefix(url, prefix), url)
	assert.True(t, strings.HasSuffix(url, "-cover.png"), url)

	_, err = svc.UploadCover(context.Background(), user, "", strings.NewReader("img"))
	assert.ErrorIs(t, err, result.ErrInvalidInput)
}

func TestSearchRouteRequiresQuery(t *testing.T) {
	svc, _ := newTestService(t)
	addBook(t, svc, uuid.New(), NewBook{Title: "Dune", Author: "Herbert", BookType: TypeRent})

	r := chi.NewRouter()
	r.Route("/api/books", NewHandler(svc).Routes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/search", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Query required"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/search?q=dune", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body result.Result[[]*Book]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Dune", body.Data[0].Title)
}

func TestWriteRoutesRequireSession(t *testing.T) {
	svc, _ := newTestService(t)
	r := chi.NewRouter()
	r.Route("/api/books", NewHandler(svc).Routes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/books/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
