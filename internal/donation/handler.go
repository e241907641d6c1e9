// internal/donation/handler.go
package donation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"booknest/internal/platform/web"
	"booknest/internal/result"
	"booknest/internal/session"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts under /api/donations.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleListAvailable)
	r.Post("/", h.handleCreate)
	r.Post("/claim", h.handleClaim)
	r.Get("/mine", h.handleListMine)
	r.Post("/{id}/delivered", h.handleDelivered)
	r.Get("/{id}/history", h.handleHistory)
}

func (h *Handler) handleListAvailable(w http.ResponseWriter, r *http.Request) {
	result.Write(w, result.Of(h.service.ListAvailableDonations(r.Context())))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	var req struct {
		BookID       uuid.UUID `json:"book_id"`
		DonationType Type      `json:"donation_type"`
		Notes        string    `json:"notes"`
	}
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.CreateDonation(r.Context(), req.BookID, sess.UserID, req.DonationType, req.Notes)))
}

// handleClaim takes {donationId, recipientId}. recipientId falls back to the
// session user when omitted; a signed-in caller may only claim for themselves.
func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DonationID  uuid.UUID `json:"donationId"`
		RecipientID uuid.UUID `json:"recipientId"`
	}
	if !web.Bind(w, r, &req) {
		return
	}
	if sess, ok := session.FromContext(r.Context()); ok {
		if req.RecipientID != uuid.Nil && req.RecipientID != sess.UserID {
			result.Write(w, result.Of[*Donation](nil, result.Unauthorized("Unauthorized")))
			return
		}
		req.RecipientID = sess.UserID
	}
	result.Write(w, result.Of(h.service.ClaimDonation(r.Context(), req.DonationID, req.RecipientID)))
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.ListDonorDonations(r.Context(), sess.UserID)))
}

func (h *Handler) handleDelivered(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.MarkDonationDelivered(r.Context(), id, sess.UserID)))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.Require(w, r); !ok {
		return
	}
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.History(r.Context(), id)))
}
