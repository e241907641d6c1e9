// internal/catalog/handler.go
package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"booknest/internal/platform/web"
	"booknest/internal/result"
	"booknest/internal/session"
)

const maxCoverBytes = 10 << 20

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts under /api/books.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleAdd)
	r.Get("/search", h.handleSearch)
	r.Get("/mine", h.handleListMine)
	r.Post("/covers", h.handleUploadCover)
	r.Get("/{id}", h.handleGet)
	r.Patch("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		Category:  q.Get("category"),
		Condition: q.Get("condition"),
		BookType:  BookType(q.Get("book_type")),
		MinPrice:  web.QueryFloat(r, "min_price"),
		MaxPrice:  web.QueryFloat(r, "max_price"),
		Limit:     web.QueryInt(r, "limit", 50),
		Offset:    web.QueryInt(r, "offset", 0),
	}
	result.Write(w, result.Of(h.service.ListBooks(r.Context(), f)))
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	var req NewBook
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.AddBook(r.Context(), sess.UserID, req)))
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		result.WriteError(w, http.StatusBadRequest, "Query required")
		return
	}
	result.Write(w, result.Of(h.service.Search(r.Context(), query)))
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.ListOwnerBooks(r.Context(), sess.UserID)))
}

// handleUploadCover takes a multipart form with the image in field "file".
func (h *Handler) handleUploadCover(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Require(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCoverBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		result.WriteError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	url, err := h.service.UploadCover(r.Context(), sess.UserID, header.Filename, file)
	result.Write(w, result.Of(map[string]string{"url": url}, err))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(w, r, "id")
	if !ok {
		return
	}
	result.Write(w, result.Of(h.service.GetBook(r.Context(), id)))
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
	var req BookUpdate
	if !web.Bind(w, r, &req) {
		return
	}
	result.Write(w, result.Of(h.service.UpdateBook(r.Context(), id, sess.UserID, req)))
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
	result.Write(w, result.Done(h.service.DeleteBook(r.Context(), id, sess.UserID)))
}
