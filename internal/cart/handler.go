// internal/cart/handler.go
package cart

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

// Routes mounts under /api/cart. Every route needs a session.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleAdd)
	r.Delete("/", h.handleClear)
	r.Patch("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleRemove)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.List(r.Context(), sess.UserID)))
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	var req struct {
		BookID uuid.UUID `json:"book_id"`
		Type   ItemType  `json:"type"`
	}
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.Add(r.Context(), sess.UserID, req.BookID, req.Type)))
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	result.Write(w, result.Done(h.service.Clear(r.Context(), sess.UserID)))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.UpdateQuantity(r.Context(), sess.UserID, id, req.Quantity)))
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	result.Write(w, result.Done(h.service.Remove(r.Context(), sess.UserID, id)))
}
