package purchase

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/catalog"
	"booknest/internal/notification"
	"booknest/internal/platform/logger"
	"booknest/internal/realtime"
	"booknest/internal/result"
	"booknest/pkg/eventstore"
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

type fixture struct {
	svc    Service
	books  catalog.Service
	notes  *notes
	events *eventstore.MemoryStore
	seller uuid.UUID
	book   *catalog.Book
}

func newFixture(t *testing.T, stock int, price float64) *fixture {
	t.Helper()
	f := &fixture{
		books:  catalog.NewService(catalog.NewMemoryRepository(), nil, logger.Nop()),
		notes:  &notes{},
		events: eventstore.NewMemoryStore(),
		seller: uuid.New(),
	}
	f.svc = NewService(NewMemoryRepository(), f.books, f.notes, realtime.NewRecorder(), f.events, logger.Nop())
	b, err := f.books.AddBook(context.Background(), f.seller, catalog.NewBook{
		Title: "Middlemarch", Author: "Eliot", BookType: catalog.TypeBuy, PriceBuy: price, StockQuantity: stock,
	})
	require.NoError(t, err)
	f.book = b
	return f
}

func (f *fixture) available(t *testing.T) int {
	t.Helper()
	b, err := f.books.GetBook(context.Background(), f.book.ID)
	require.NoError(t, err)
	return b.AvailableQuantity
}

func TestCreatePurchaseReservesStock(t *testing.T) {
	f := newFixture(t, 3, 12.5)
	buyer := uuid.New()

	p, err := f.svc.CreatePurchase(context.Background(), Order{BookID: f.book.ID, BuyerID: buyer, Quantity: 2, ShippingAddress: "1 Main St"})
	require.NoError(t, err)
	assert.Equal(t, PaymentPending, p.PaymentStatus)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, f.seller, p.SellerID)
	assert.InDelta(t, 12.5, p.PurchasePrice, 1e-9)
	assert.Equal(t, 1, f.available(t))

	require.Len(t, f.notes.all, 1)
	assert.Equal(t, f.seller, f.notes.all[0].UserID)
	assert.Equal(t, "New Purchase Order", f.notes.all[0].Title)
	assert.Equal(t, "New purchase order for Middlemarch", f.notes.all[0].Message)
}

func TestCreatePurchaseInsufficientStock(t *testing.T) {
	f := newFixture(t, 1, 5)

	_, err := f.svc.CreatePurchase(context.Background(), Order{BookID: f.book.ID, BuyerID: uuid.New(), Quantity: 2})
	assert.ErrorIs(t, err, result.ErrInsufficientStock)
	assert.Equal(t, "Insufficient stock", err.Error())
	assert.Equal(t, 1, f.available(t))
	assert.Empty(t, f.notes.all)

	_, err = f.svc.CreatePurchase(context.Background(), Order{BookID: f.book.ID, BuyerID: f.seller})
	assert.ErrorIs(t, err, result.ErrInvalidInput)

	_, err = f.svc.CreatePurchase(context.Background(), Order{BookID: f.book.ID, BuyerID: uuid.New(), Quantity: -1})
	assert.ErrorIs(t, err, result.ErrInvalidInput)
}

func TestPaidPaymentConfirms(t *testing.T) {
	f := newFixture(t, 2, 5)
	buyer := uuid.New()
	p, err := f.svc.CreatePurchase(context.Background(), Order{BookID: f.book.ID, BuyerID: buyer})
	require.NoError(t, err)

	paid, err := f.svc.UpdatePaymentStatus(context.Background(), p.ID, PaymentPaid, "txn_123")
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, StatusConfirmed, paid.Status)
	assert.Equal(t, "txn_123", paid.TransactionID)
	assert.Equal(t, 1, f.available(t))

	last := f.notes.all[len(f.notes.all)-1]
	assert.Equal(t, buyer, last.UserID)
	assert.Equal(t, "Payment Received", last.Title)

	_, err = f.svc.UpdatePaymentStatus(context.Background(), p.ID, PaymentFailed, "")
	assert.ErrorIs(t, err, result.ErrConflict)
	assert.Equal(t, 1, f.available(t))

	history, err := f.events.Load(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, EventPaid, history[1].EventType)
}

func TestFailedPaymentReleasesStock(t *testing.T) {
	f := newFixture(t, 2, 5)
	buyer := uuid.New()
	p, err := f.svc.CreatePurchase(context.Background(), Order{BookID: f.book.ID, BuyerID: buyer, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, f.available(t))

	failed, err := f.svc.UpdatePaymentStatus(context.Background(), p.ID, PaymentFailed, "")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, failed.Status)
	assert.Equal(t, 2, f.available(t))

	last := f.notes.all[len(f.notes.all)-1]
	assert.Equal(t, "Payment Failed", last.Title)
}

func TestUpdatePaymentStatusValidation(t *testing.T) {
	f := newFixture(t, 1, 5)
	_, err := f.svc.UpdatePaymentStatus(context.Background(), uuid.New(), "refunded", "")
	assert.ErrorIs(t, err, result.ErrInvalidInput)

	_, err = f.svc.UpdatePaymentStatus(context.Background(), uuid.New(), PaymentPaid, "")
	assert.ErrorIs(t, err, result.ErrNotFound)
}

func TestConcurrentSettlementsApplyOnce(t *testing.T) {
	f := newFixture(t, 1, 5)
	p, err := f.svc.CreatePurchase(context.Background(), Order{BookID: f.book.ID, BuyerID: uuid.New()})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	settled := 0
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.UpdatePaymentStatus(context.Background(), p.ID, PaymentFailed, ""); err == nil {
				mu.Lock()
				settled++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, settled)
	assert.Equal(t, 1, f.available(t))
}

func TestPurchaseVisibility(t *testing.T) {
	f := newFixture(t, 2, 5)
	buyer := uuid.New()
	p, err := f.svc.CreatePurchase(context.Background(), Order{BookID: f.book.ID, BuyerID: buyer})
	require.NoError(t, err)

	_, err = f.svc.GetPurchase(context.Background(), p.ID, uuid.New())
	assert.ErrorIs(t, err, result.ErrUnauthorized)

	mine, err := f.svc.ListBuyerPurchases(context.Background(), buyer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	sales, err := f.svc.ListSellerPurchases(context.Background(), f.seller)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}
