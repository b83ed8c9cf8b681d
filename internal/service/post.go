package service

import (
	"context"
	"log/slog"

	"github.com/shaiq/auth-practice/internal/apperror"
	"github.com/shaiq/auth-practice/internal/auth"
	"github.com/shaiq/auth-practice/internal/model"
	"github.com/shaiq/auth-practice/internal/repository"
)

// PostService handles the post and category surface.
type PostService struct {
	posts      repository.PostRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
}

// NewPostService creates a PostService.
func NewPostService(posts repository.PostRepository, categories repository.CategoryRepository, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, categories: categories, logger: logger}
}

// CreatePostParams carries the fields of a post creation. Categories are
// named, not referenced by ID; unknown names are created on the fly.
type CreatePostParams struct {
	Title      string
	Content    string
	Categories []string
}

// Create stores a post for the given author, resolving each category name
// to a record first.
func (s *PostService) Create(ctx context.Context, authorID string, params CreatePostParams) (*model.Post, error) {
	var cats []model.Category
	for _, name := range params.Categories {
		cat, err := s.categories.FindOrCreateByName(ctx, name)
		if err != nil {
			return nil, err
		}
		cats = append(cats, *cat)
	}

	post := &model.Post{
		Title:      params.Title,
		Content:    params.Content,
		UserID:     authorID,
		Categories: cats,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post created",
		slog.String("postID", post.ID),
		slog.String("userID", authorID),
	)
	return post, nil
}

// Get returns the post with the given ID.
func (s *PostService) Get(ctx context.Context, id string) (*model.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// List returns a page of posts, newest first.
func (s *PostService) List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	return s.posts.List(ctx, opts)
}

// Delete removes a post. Only the author or a moderator may delete it.
func (s *PostService) Delete(ctx context.Context, identity *auth.Identity, id string) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if post.UserID != identity.ID && identity.Role != model.RoleModerator {
		return apperror.Forbidden("You can only delete your own posts")
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("post deleted",
		slog.String("postID", id),
		slog.String("userID", identity.ID),
	)
	return nil
}

// ListCategories returns all categories.
func (s *PostService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categories.List(ctx)
}
