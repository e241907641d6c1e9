// internal/purchase/handler.go
package purchase

import (
	"net/http"

	"github.com/go-chi/chi/v5"

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

// Routes mounts under /api/purchases. Every route requires a session.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/mine", h.handleListMine)
	r.Get("/sales", h.handleListSales)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/payment", h.handlePayment)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	var req Order
	if !web.Bind(w, r, &req) {
		return
	}
	req.BuyerID = sess.UserID
	result.Write(w, result.Of(h.service.CreatePurchase(r.Context(), req)))
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.ListBuyerPurchases(r.Context(), sess.UserID)))
}

func (h *Handler) handleListSales(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.ListSellerPurchases(r.Context(), sess.UserID)))
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
	result.Write(w, result.Of(h.service.GetPurchase(r.Context(), id, sess.UserID)))
}

// handlePayment records the outcome reported for the buyer's payment.
func (h *Handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status        PaymentStatus `json:"status"`
		TransactionID string        `json:"transaction_id"`
	}
	if !web.Bind(w, r, &req) {
		return
	}
	p, err := h.service.GetPurchase(r.Context(), id, sess.UserID)
	if err == nil && p.BuyerID != sess.UserID {
		err = result.Unauthorized("Unauthorized")
	}
	if err != nil {
		result.Write(w, result.Done(err))
		return
	}
	result.Write(w, result.Of(h.service.UpdatePaymentStatus(r.Context(), id, req.Status, req.TransactionID)))
}
