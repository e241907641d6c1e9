// internal/notification/handler.go
package notification

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

// Routes mounts under /api/notifications.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/unread-count", h.handleUnreadCount)
	r.Post("/{id}/read", h.handleMarkRead)
	r.Delete("/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	limit := web.QueryInt(r, "limit", defaultListLimit)
	result.Write(w, result.Of(h.service.List(r.Context(), sess.UserID, limit)))
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	count, err := h.service.UnreadCount(r.Context(), sess.UserID)
	result.Write(w, result.Of(map[string]int{"count": count}, err))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.MarkRead(r.Context(), sess.UserID, id)))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	result.Write(w, result.Done(h.service.Delete(r.Context(), sess.UserID, id)))
}
