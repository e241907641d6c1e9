package wishlist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/catalog"
	"booknest/internal/platform/logger"
	"booknest/internal/realtime"
	"booknest/internal/result"
	"booknest/internal/session"
)

func newTestService(t *testing.T) (Service, *realtime.Recorder, uuid.UUID) {
	t.Helper()
	books := catalog.NewService(catalog.NewMemoryRepository(), nil, logger.Nop())
	b, err := books.AddBook(context.Background(), uuid.New(), catalog.NewBook{Title: "Persuasion", Author: "Austen", BookType: catalog.TypeBuy})
	require.NoError(t, err)
	rec := realtime.NewRecorder()
	return NewService(NewMemoryRepository(), books, rec, logger.Nop()), rec, b.ID
}

func TestAddTwiceReportsAlreadyInWishlist(t *testing.T) {
	svc, rec, book := newTestService(t)
	user := uuid.New()

	_, err := svc.Add(context.Background(), user, book)
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), user, book)
	assert.ErrorIs(t, err, result.ErrAlreadyExists)
	assert.Equal(t, "Already in wishlist", err.Error())

	items, err := svc.List(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Len(t, rec.For(user), 1)
}

func TestRemoveAndContains(t *testing.T) {
	svc, rec, book := newTestService(t)
	user := uuid.New()
	item, err := svc.Add(context.Background(), user, book)
	require.NoError(t, err)

	in, err := svc.Contains(context.Background(), user, book)
	require.NoError(t, err)
	assert.True(t, in)

	require.NoError(t, svc.Remove(context.Background(), user, book))
	in, err = svc.Contains(context.Background(), user, book)
	require.NoError(t, err)
	assert.False(t, in)

	deltas := rec.For(user)
	require.Len(t, deltas, 2)
	assert.Equal(t, realtime.Delete(realtime.TopicWishlist, item.ID), deltas[1])

	assert.ErrorIs(t, svc.Remove(context.Background(), user, book), result.ErrNotFound)
}

func TestAddUnknownBook(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Add(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, result.ErrNotFound)
}

func TestAddRouteReportsDuplicateInBody(t *testing.T) {
	svc, _, book := newTestService(t)
	user := uuid.New()
	router := chi.NewRouter()
	router.Route("/api/wishlist", NewHandler(svc).Routes)

	post := func() result.Result[*Item] {
		req := httptest.NewRequest(http.MethodPost, "/api/wishlist/", strings.NewReader(`{"book_id":"`+book.String()+`"}`))
		req = req.WithContext(session.NewContext(req.Context(), &session.Session{UserID: user}))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var out result.Result[*Item]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out
	}

	assert.True(t, post().Success)
	dup := post()
	assert.False(t, dup.Success)
	assert.Equal(t, result.KindAlreadyExists, dup.Kind)
	assert.Equal(t, "Already in wishlist", dup.Error)
}
