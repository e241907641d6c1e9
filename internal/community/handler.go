// internal/community/handler.go
package community

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

// Routes mounts under /api/community.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/posts", h.handleList)
	r.Post("/posts", h.handleCreate)
	r.Get("/posts/{id}", h.handleGet)
	r.Patch("/posts/{id}", h.handleUpdate)
	r.Delete("/posts/{id}", h.handleDelete)
	r.Post("/posts/{id}/comments", h.handleComment)
	r.Post("/posts/{id}/reactions", h.handleReactPost)
	r.Post("/comments/{id}/reactions", h.handleReactComment)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	limit := web.QueryInt(r, "limit", defaultPageSize)
	offset := web.QueryInt(r, "offset", 0)
	result.Write(w, result.Of(h.service.ListPosts(r.Context(), category, limit, offset)))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	var req NewPost
	if !web.Bind(w, r, &req) {
		return
	}
	req.AuthorID = sess.UserID
	result.Write(w, result.Of(h.service.CreatePost(r.Context(), req)))
}

// handleGet is public; a signed-in viewer also gets their own reactions.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	viewer := uuid.Nil
	if sess, ok := session.FromContext(r.Context()); ok {
		viewer = sess.UserID
	}
	result.Write(w, result.Of(h.service.GetPost(r.Context(), id, viewer)))
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
	var req PostUpdate
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.UpdatePost(r.Context(), id, sess.UserID, req)))
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
	result.Write(w, result.Done(h.service.DeletePost(r.Context(), id, sess.UserID)))
}

func (h *Handler) handleComment(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.AddCommentToPost(r.Context(), id, sess.UserID, req.Content)))
}

// reactionRequest is optional; an empty body reacts with like.
type reactionRequest struct {
	ReactionType ReactionType `json:"reaction_type"`
}

func (h *Handler) handleReactPost(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	var req reactionRequest
	if r.ContentLength != 0 && !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.AddReactionToPost(r.Context(), id, sess.UserID, req.ReactionType)))
}

func (h *Handler) handleReactComment(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	var req reactionRequest
	if r.ContentLength != 0 && !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.AddReactionToComment(r.Context(), id, sess.UserID, req.ReactionType)))
}
