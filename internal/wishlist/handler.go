// internal/wishlist/handler.go
package wishlist

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

// Routes mounts under /api/wishlist.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleAdd)
	r.Get("/{bookID}", h.handleContains)
	r.Delete("/{bookID}", h.handleRemove)
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
	}
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.Add(r.Context(), sess.UserID, req.BookID)))
}

func (h *Handler) handleContains(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	bookID, ok := web.PathID(w, r, "bookID")
	if !ok {
		return
	}
	in, err := h.service.Contains(r.Context(), sess.UserID, bookID)
	result.Write(w, result.Of(map[string]bool{"in_wishlist": in}, err))
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	bookID, ok := web.PathID(w, r, "bookID")
	if !ok {
		return
	}
	result.Write(w, result.Done(h.service.Remove(r.Context(), sess.UserID, bookID)))
}
