package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/shaiq/auth-practice/internal/apperror"
	"github.com/shaiq/auth-practice/internal/auth"
	"github.com/shaiq/auth-practice/internal/model"
	"github.com/shaiq/auth-practice/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository for service tests.
type fakeUserRepo struct {
	users map[string]*model.User
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperror.Conflict("user", "email")
		}
	}
	user.ID = xid.New().String()
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperror.NotFound("user", "email "+email)
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user", "id "+id)
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) FindByResetToken(_ context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperror.NotFound("user", "reset token")
	}
	for _, u := range r.users {
		if u.PasswordResetToken == token {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperror.NotFound("user", "reset token")
}

func (r *fakeUserRepo) List(_ context.Context, _ repository.ListOptions) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return apperror.NotFound("user", "id "+user.ID)
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return apperror.NotFound("user", "id "+id)
	}
	u.PasswordHash = hash
	u.PasswordResetToken = ""
	u.PasswordResetExpires = time.Time{}
	return nil
}

func (r *fakeUserRepo) UpdatePasswordResetToken(_ context.Context, id, token string, expiry time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return apperror.NotFound("user", "id "+id)
	}
	u.PasswordResetToken = token
	u.PasswordResetExpires = expiry
	return nil
}

func (r *fakeUserRepo) ClearPasswordResetToken(_ context.Context, id string) error {
	u, ok := r.users[id]
	if !ok {
		return apperror.NotFound("user", "id "+id)
	}
	u.PasswordResetToken = ""
	u.PasswordResetExpires = time.Time{}
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return apperror.NotFound("user", "id "+id)
	}
	delete(r.users, id)
	return nil
}

// fakeMailer records sent mail and can be told to fail.
type fakeMailer struct {
	resetSent   []string // recipient emails
	resetTokens []string
	changedSent []string
	fail        bool
}

func (m *fakeMailer) SendPasswordResetEmail(email, _, token string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.resetSent = append(m.resetSent, email)
	m.resetTokens = append(m.resetTokens, token)
	return nil
}

func (m *fakeMailer) SendPasswordChangedEmail(email, _ string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.changedSent = append(m.changedSent, email)
	return nil
}

// fakeProvider is an OAuthProvider that returns a canned profile.
type fakeProvider struct {
	profile *auth.GoogleUser
	err     error
	codes   []string
}

func (p *fakeProvider) AuthURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*auth.GoogleUser, error) {
	p.codes = append(p.codes, code)
	if p.err != nil {
		return nil, p.err
	}
	return p.profile, nil
}
