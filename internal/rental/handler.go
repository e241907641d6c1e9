// internal/rental/handler.go
package rental

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

// Routes mounts under /api/rentals.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.handleRequest)
	r.Post("/approve", h.handleApprove)
	r.Get("/mine", h.handleListMine)
	r.Get("/requests", h.handleListRequests)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/return", h.handleReturn)
	r.Get("/{id}/history", h.handleHistory)
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	var req Request
	if !web.Bind(w, r, &req) {
		return
	}
	req.RenterID = sess.UserID
	result.Write(w, result.Of(h.service.RequestRental(r.Context(), req)))
}

// handleApprove takes {rentalId, ownerId}. ownerId falls back to the session
// user when omitted; a signed-in caller may only approve as themselves.
func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RentalID uuid.UUID `json:"rentalId"`
		OwnerID  uuid.UUID `json:"ownerId"`
	}
	if !web.Bind(w, r, &req) {
		return
	}
	if sess, ok := session.FromContext(r.Context()); ok {
		if req.OwnerID != uuid.Nil && req.OwnerID != sess.UserID {
			result.Write(w, result.Of[*Rental](nil, result.Unauthorized("Unauthorized or rental not found")))
			return
		}
		req.OwnerID = sess.UserID
	}
	result.Write(w, result.Of(h.service.ApproveRental(r.Context(), req.RentalID, req.OwnerID)))
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.ReturnRental(r.Context(), id, sess.UserID)))
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.ListRenterRentals(r.Context(), sess.UserID)))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.ListOwnerRentals(r.Context(), sess.UserID)))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.GetRental(r.Context(), id, sess.UserID)))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.service.GetRental(r.Context(), id, sess.UserID); err != nil {
		result.Write(w, result.Done(err))
		return
	}
	result.Write(w, result.Of(h.service.History(r.Context(), id)))
}
