package cart

import (
	"context"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"booknest/internal/catalog"
	"booknest/internal/platform/logger"
	"booknest/internal/realtime"
	"booknest/internal/result"
)

type fixture struct {
	svc   Service
	rec   *realtime.Recorder
	books []uuid.UUID
}

func newFixture(t require.TestingT, n int) *fixture {
	books := catalog.NewService(catalog.NewMemoryRepository(), nil, logger.Nop())
	f := &fixture{rec: realtime.NewRecorder()}
	f.svc = NewService(NewMemoryRepository(), books, f.rec, logger.Nop())
	for range n {
		b, err := books.AddBook(context.Background(), uuid.New(), catalog.NewBook{Title: "T", Author: "A", BookType: catalog.TypeBuy})
		require.NoError(t, err)
		f.books = append(f.books, b.ID)
	}
	return f
}

func TestAddSameBookTwiceBumpsQuantity(t *testing.T) {
	f := newFixture(t, 1)
	user := uuid.New()

	first, err := f.svc.Add(context.Background(), user, f.books[0], TypeBuy)
	require.NoError(t, err)
	second, err := f.svc.Add(context.Background(), user, f.books[0], TypeBuy)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Quantity)

	_, err = f.svc.Add(context.Background(), user, f.books[0], TypeRent)
	require.NoError(t, err)

	items, err := f.svc.List(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	deltas := f.rec.For(user)
	require.Len(t, deltas, 3)
	assert.Equal(t, realtime.OpInsert, deltas[0].Op)
	assert.Equal(t, realtime.OpUpdate, deltas[1].Op)
	assert.Equal(t, realtime.OpInsert, deltas[2].Op)
}

func TestAddValidation(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.svc.Add(context.Background(), uuid.New(), f.books[0], "borrow")
	assert.ErrorIs(t, err, result.ErrInvalidInput)

	_, err = f.svc.Add(context.Background(), uuid.New(), uuid.New(), TypeBuy)
	assert.ErrorIs(t, err, result.ErrNotFound)
}

func TestUpdateQuantityToZeroRemoves(t *testing.T) {
	f := newFixture(t, 2)
	user := uuid.New()
	a, err := f.svc.Add(context.Background(), user, f.books[0], TypeBuy)
	require.NoError(t, err)
	_, err = f.svc.Add(context.Background(), user, f.books[1], TypeBuy)
	require.NoError(t, err)

	updated, err := f.svc.UpdateQuantity(context.Background(), user, a.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	removed, err := f.svc.UpdateQuantity(context.Background(), user, a.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, removed)

	items, err := f.svc.List(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, items, 1, "removing a line drops exactly one")
}

func TestItemsBelongToTheirUser(t *testing.T) {
	f := newFixture(t, 1)
	owner, other := uuid.New(), uuid.New()
	item, err := f.svc.Add(context.Background(), owner, f.books[0], TypeBuy)
	require.NoError(t, err)

	_, err = f.svc.UpdateQuantity(context.Background(), other, item.ID, 3)
	assert.ErrorIs(t, err, result.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.Remove(context.Background(), other, item.ID), result.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.Remove(context.Background(), owner, uuid.New()), result.ErrNotFound)

	require.NoError(t, f.svc.Clear(context.Background(), other))
	items, err := f.svc.List(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestMirrorTracksCart(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(t, 3)
		ctx := context.Background()
		user := uuid.New()

		for _, op := range rapid.SliceOfN(rapid.IntRange(0, 9), 1, 30).Draw(t, "ops") {
			items, err := f.svc.List(ctx, user)
			require.NoError(t, err)
			switch {
			case op < 6:
				kind := TypeBuy
				if op%2 == 1 {
					kind = TypeRent
				}
				_, err = f.svc.Add(ctx, user, f.books[op%3], kind)
			case op < 8 && len(items) > 0:
				_, err = f.svc.UpdateQuantity(ctx, user, items[0].ID, (7-op)*3)
			case op == 8 && len(items) > 0:
				err = f.svc.Remove(ctx, user, items[len(items)-1].ID)
			case op == 9:
				err = f.svc.Clear(ctx, user)
			}
			require.NoError(t, err)
		}

		mirror := realtime.NewMirror()
		for _, d := range f.rec.For(user) {
			require.NoError(t, mirror.Apply(d))
		}

		items, err := f.svc.List(ctx, user)
		require.NoError(t, err)
		want := make([]string, 0, len(items))
		for _, item := range items {
			want = append(want, item.ID.String())
		}
		slices.Sort(want)
		require.Equal(t, want, mirror.IDs(realtime.TopicCart))
	})
}
