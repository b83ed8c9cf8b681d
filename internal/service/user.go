package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiq/auth-practice/internal/auth"
	"github.com/shaiq/auth-practice/internal/model"
	"github.com/shaiq/auth-practice/internal/repository"
)

// UserService handles user CRUD and the profile listing.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{users: users, passwords: passwords, logger: logger}
}

// CreateUserParams carries the fields of an administrative user creation.
type CreateUserParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      model.Role
}

// Create adds a user record. Unlike Register this does not sign the new
// user in; it exists for the administrative CRUD surface.
func (s *UserService) Create(ctx context.Context, params CreateUserParams) (*model.User, error) {
	hash, err := s.passwords.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("service/user: hashing password: %w", err)
	}

	role := params.Role
	if role == "" {
		role = model.RoleUser
	}

	user := &model.User{
		Email:        params.Email,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", slog.String("userID", user.ID))
	return user, nil
}

// Get returns the user with the given ID.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.users.FindByID(ctx, id)
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	return s.users.List(ctx, opts)
}

// UpdateUserParams carries the optional fields of a user update. Nil fields
// are left unchanged.
type UpdateUserParams struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	AvatarURL *string
}

// Update applies the non-nil fields to the user. A password change is
// re-hashed; an email change re-checks uniqueness in the store.
func (s *UserService) Update(ctx context.Context, id string, params UpdateUserParams) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Email != nil {
		user.Email = *params.Email
	}
	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}
	if params.AvatarURL != nil {
		user.AvatarURL = *params.AvatarURL
	}
	if params.Password != nil {
		hash, err := s.passwords.Hash(*params.Password)
		if err != nil {
			return nil, fmt.Errorf("service/user: hashing password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user updated", slog.String("userID", user.ID))
	return user, nil
}

// Delete removes the user.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", slog.String("userID", id))
	return nil
}

// ListProfiles returns the public projection of a page of users.
func (s *UserService) ListProfiles(ctx context.Context, opts repository.ListOptions) ([]model.Profile, error) {
	users, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	profiles := make([]model.Profile, len(users))
	for i := range users {
		profiles[i] = model.ProfileOf(&users[i])
	}

	return profiles, nil
}
