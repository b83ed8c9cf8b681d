package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaiq/auth-practice/internal/apperror"
	"github.com/shaiq/auth-practice/internal/auth"
	"github.com/shaiq/auth-practice/internal/service"
)

// PostHandler serves the post and category surface.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

type createPostRequest struct {
	Title      string   `json:"title" validate:"required"`
	Content    string   `json:"content"`
	Categories []string `json:"categories" validate:"dive,required"`
}

// HandleCreate stores a post for the authenticated user.
//
// HTTP: POST /api/posts (guarded)
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("User not authenticated"))
		return
	}

	var req createPostRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.Create(r.Context(), identity.ID, service.CreatePostParams{
		Title:      req.Title,
		Content:    req.Content,
		Categories: req.Categories,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Post created successfully", post)
}

// HandleList returns a page of posts, newest first.
//
// HTTP: GET /api/posts
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context(), listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Posts retrieved successfully", posts)
}

// HandleGet returns one post with its categories.
//
// HTTP: GET /api/posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Post retrieved successfully", post)
}

// HandleDelete removes a post. The service enforces that only the author
// or a moderator may do this.
//
// HTTP: DELETE /api/posts/{id} (guarded)
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("User not authenticated"))
		return
	}

	if err := h.posts.Delete(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Post deleted successfully", nil)
}

// HandleListCategories returns all categories.
//
// HTTP: GET /api/categories
func (h *PostHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.posts.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Categories retrieved successfully", cats)
}
