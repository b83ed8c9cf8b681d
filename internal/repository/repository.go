// Package repository defines the storage interfaces the services depend on.
// Concrete implementations live in subpackages (sqlite). Services program
// to these interfaces, so tests can substitute in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/shaiq/auth-practice/internal/model"
)

// ListOptions paginates list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository is the credential store. Every lookup returns
// apperror.ErrNotFound when no record matches; Create and Update return
// apperror.ErrConflict on an email collision. Email lookups are
// case-insensitive.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByResetToken(ctx context.Context, token string) (*model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error

	// UpdatePassword stores a new password hash and clears both reset
	// fields in the same atomic update, so a reset token can be consumed
	// exactly once even under concurrent attempts.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	UpdatePasswordResetToken(ctx context.Context, id, token string, expiry time.Time) error
	ClearPasswordResetToken(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// PostRepository stores posts and their category links.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, opts ListOptions) ([]model.Post, error)
	Delete(ctx context.Context, id string) error
}

// CategoryRepository stores post categories. Names are unique.
type CategoryRepository interface {
	// FindOrCreateByName returns the category with the given name,
	// creating it when absent.
	FindOrCreateByName(ctx context.Context, name string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
}
