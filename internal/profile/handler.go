// internal/profile/handler.go
package profile

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

// Routes mounts under /api/profiles. Every route requires a session.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/me", h.handleGetMe)
	r.Patch("/me", h.handleUpdateMe)
	r.Get("/{id}", h.handleGet)
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.GetProfile(r.Context(), sess.UserID)))
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	var req Update
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.UpdateProfile(r.Context(), sess.UserID, req)))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.GetProfile(r.Context(), id)))
}
