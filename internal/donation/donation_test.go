package donation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/catalog"
	"booknest/internal/notification"
	"booknest/internal/platform/logger"
	"booknest/internal/realtime"
	"booknest/internal/result"
	"booknest/internal/session"
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
	deltas *realtime.Recorder
}

func newFixture() *fixture {
	f := &fixture{
		books:  catalog.NewService(catalog.NewMemoryRepository(), nil, logger.Nop()),
		notes:  &notes{},
		deltas: realtime.NewRecorder(),
	}
	f.svc = NewService(NewMemoryRepository(), f.books, f.notes, f.deltas, eventstore.NewMemoryStore(), logger.Nop())
	return f
}

func (f *fixture) donate(t *testing.T, donor uuid.UUID) (*catalog.Book, *Donation) {
	t.Helper()
	b, err := f.books.AddBook(context.Background(), donor, catalog.NewBook{Title: "Emma", Author: "Austen", BookType: catalog.TypeBuy, PriceBuy: 4})
	require.NoError(t, err)
	d, err := f.svc.CreateDonation(context.Background(), b.ID, donor, "", "hardcover")
	require.NoError(t, err)
	return b, d
}

func TestCreateDonationRelistsBook(t *testing.T) {
	f := newFixture()
	donor := uuid.New()
	b, d := f.donate(t, donor)

	assert.Equal(t, TypeCommunity, d.DonationType)
	assert.Equal(t, StatusAvailable, d.Status)
	assert.Nil(t, d.RecipientID)

	got, err := f.books.GetBook(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.TypeDonate, got.BookType)
	assert.Equal(t, catalog.StatusActive, got.Status)

	available, err := f.svc.ListAvailableDonations(context.Background())
	require.NoError(t, err)
	assert.Len(t, available, 1)
}

func TestCreateDonationRejectsStrangersAndBadTypes(t *testing.T) {
	f := newFixture()
	donor := uuid.New()
	b, err := f.books.AddBook(context.Background(), donor, catalog.NewBook{Title: "T", Author: "A", BookType: catalog.TypeBuy})
	require.NoError(t, err)

	_, err = f.svc.CreateDonation(context.Background(), b.ID, uuid.New(), TypeDirect, "")
	assert.ErrorIs(t, err, result.ErrUnauthorized)

	_, err = f.svc.CreateDonation(context.Background(), b.ID, donor, "auction", "")
	assert.ErrorIs(t, err, result.ErrInvalidInput)
}

func TestClaimAndDeliver(t *testing.T) {
	f := newFixture()
	donor, recipient := uuid.New(), uuid.New()
	_, d := f.donate(t, donor)

	claimed, err := f.svc.ClaimDonation(context.Background(), d.ID, recipient)
	require.NoError(t, err)
	assert.Equal(t, StatusClaimed, claimed.Status)
	require.NotNil(t, claimed.RecipientID)
	assert.Equal(t, recipient, *claimed.RecipientID)
	assert.NotNil(t, claimed.ClaimedDate)

	require.Len(t, f.notes.all, 1)
	assert.Equal(t, donor, f.notes.all[0].UserID)
	assert.Equal(t, "Donation Claimed", f.notes.all[0].Title)
	assert.Equal(t, "Your donated book has been claimed", f.notes.all[0].Message)
	assert.Len(t, f.deltas.For(recipient), 1)

	available, err := f.svc.ListAvailableDonations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, available)

	_, err = f.svc.MarkDonationDelivered(context.Background(), d.ID, recipient)
	assert.ErrorIs(t, err, result.ErrUnauthorized)

	delivered, err := f.svc.MarkDonationDelivered(context.Background(), d.ID, donor)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, delivered.Status)
	assert.NotNil(t, delivered.DeliveredDate)

	history, err := f.svc.History(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, EventDelivered, history[2].EventType)
}

func TestClaimRequiresAvailable(t *testing.T) {
	f := newFixture()
	donor := uuid.New()
	_, d := f.donate(t, donor)

	_, err := f.svc.ClaimDonation(context.Background(), d.ID, donor)
	assert.ErrorIs(t, err, result.ErrInvalidInput)

	_, err = f.svc.ClaimDonation(context.Background(), d.ID, uuid.New())
	require.NoError(t, err)
	_, err = f.svc.ClaimDonation(context.Background(), d.ID, uuid.New())
	assert.ErrorIs(t, err, result.ErrConflict)

	_, err = f.svc.ClaimDonation(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, result.ErrNotFound)
}

func TestDeliverRequiresClaim(t *testing.T) {
	f := newFixture()
	donor := uuid.New()
	_, d := f.donate(t, donor)

	_, err := f.svc.MarkDonationDelivered(context.Background(), d.ID, donor)
	assert.ErrorIs(t, err, result.ErrConflict)
}

func TestConcurrentClaimsOneWinner(t *testing.T) {
	f := newFixture()
	_, d := f.donate(t, uuid.New())

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := []uuid.UUID{}
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recipient := uuid.New()
			if _, err := f.svc.ClaimDonation(context.Background(), d.ID, recipient); err == nil {
				mu.Lock()
				winners = append(winners, recipient)
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, result.ErrConflict)
			}
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)
	mine, err := f.svc.ListDonorDonations(context.Background(), d.DonorID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, winners[0], *mine[0].RecipientID)
}

func TestClaimRoute(t *testing.T) {
	f := newFixture()
	_, d := f.donate(t, uuid.New())
	recipient := uuid.New()

	router := chi.NewRouter()
	router.Route("/api/donations", NewHandler(f.svc).Routes)

	raw, _ := json.Marshal(map[string]string{"donationId": d.ID.String(), "recipientId": recipient.String()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/donations/claim", bytes.NewReader(raw)))
	require.Equal(t, http.StatusOK, rec.Code)

	var out result.Result[*Donation]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.True(t, out.Success)
	assert.Equal(t, StatusClaimed, out.Data.Status)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/donations/claim", bytes.NewReader(raw)))
	require.Equal(t, http.StatusOK, rec.Code)
	out = result.Result[*Donation]{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.False(t, out.Success)
	assert.Equal(t, result.KindConflict, out.Kind)
}

func TestClaimRouteUsesSessionRecipient(t *testing.T) {
	f := newFixture()
	_, d := f.donate(t, uuid.New())
	caller := uuid.New()

	router := chi.NewRouter()
	router.Route("/api/donations", NewHandler(f.svc).Routes)

	post := func(body map[string]string) result.Result[*Donation] {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/api/donations/claim", bytes.NewReader(raw))
		req = req.WithContext(session.NewContext(req.Context(), &session.Session{UserID: caller, State: session.Authenticated}))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var out result.Result[*Donation]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out
	}

	spoofed := post(map[string]string{"donationId": d.ID.String(), "recipientId": uuid.NewString()})
	assert.False(t, spoofed.Success)
	assert.Equal(t, result.KindUnauthorized, spoofed.Kind)

	claimed := post(map[string]string{"donationId": d.ID.String()})
	require.True(t, claimed.Success, claimed.Error)
	require.NotNil(t, claimed.Data.RecipientID)
	assert.Equal(t, caller, *claimed.Data.RecipientID)
}
