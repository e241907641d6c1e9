// internal/messaging/handler.go
package messaging

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

// Routes mounts under /api/messages.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.handleSend)
	r.Get("/conversations", h.handleConversations)
	r.Get("/unread-count", h.handleUnreadCount)
	r.Get("/with/{userID}", h.handleConversation)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	var req Draft
	if !web.Bind(w, r, &req) {
		return
	}
	req.SenderID = sess.UserID
	result.Write(w, result.Of(h.service.SendPrivateMessage(r.Context(), req)))
}

func (h *Handler) handleConversations(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.ListConversations(r.Context(), sess.UserID)))
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	count, err := h.service.UnreadCount(r.Context(), sess.UserID)
	result.Write(w, result.Of(map[string]int{"count": count}, err))
}

func (h *Handler) handleConversation(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	other, ok := web.PathID(w, r, "userID")
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.GetConversation(r.Context(), sess.UserID, other)))
}
