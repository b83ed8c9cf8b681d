package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/shaiq/auth-practice/internal/apperror"
	"github.com/shaiq/auth-practice/internal/auth"
	"github.com/shaiq/auth-practice/internal/model"
	"github.com/shaiq/auth-practice/internal/repository"
)

func newUserService() (*UserService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewUserService(repo, auth.NewPasswordServiceWithCost(bcrypt.MinCost), discardLogger()), repo
}

func TestUserCreate_HashesPassword(t *testing.T) {
	svc, _ := newUserService()

	user, err := svc.Create(context.Background(), CreateUserParams{
		Email:    "a@b.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.PasswordHash == "" || user.PasswordHash == "password123" {
		t.Errorf("PasswordHash = %q, want bcrypt hash", user.PasswordHash)
	}
	if user.Role != model.RoleUser {
		t.Errorf("Role = %q, want default %q", user.Role, model.RoleUser)
	}
}

func TestUserUpdate_PartialFields(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserParams{
		Email:     "a@b.com",
		Password:  "password123",
		FirstName: "Before",
		LastName:  "Change",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first := "After"
	updated, err := svc.Update(ctx, user.ID, UpdateUserParams{FirstName: &first})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.FirstName != "After" {
		t.Errorf("FirstName = %q, want After", updated.FirstName)
	}
	if updated.LastName != "Change" {
		t.Errorf("LastName = %q, unset fields must be preserved", updated.LastName)
	}
	if updated.Email != "a@b.com" {
		t.Errorf("Email = %q, unset fields must be preserved", updated.Email)
	}
}

func TestUserUpdate_RehashesPassword(t *testing.T) {
	svc, repo := newUserService()
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserParams{Email: "a@b.com", Password: "old"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	oldHash := user.PasswordHash

	newPassword := "brand-new"
	if _, err := svc.Update(ctx, user.ID, UpdateUserParams{Password: &newPassword}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	stored, _ := repo.FindByID(ctx, user.ID)
	if stored.PasswordHash == oldHash {
		t.Error("password hash unchanged after update")
	}
	if stored.PasswordHash == "brand-new" {
		t.Error("password stored unhashed")
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	svc, _ := newUserService()

	if _, err := svc.Update(context.Background(), "missing", UpdateUserParams{}); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update missing = %v, want ErrNotFound", err)
	}
}

func TestListProfiles_OmitsSecrets(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateUserParams{Email: "a@b.com", Password: "x", FirstName: "A"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateUserParams{Email: "b@b.com", Password: "x", FirstName: "B"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	profiles, err := svc.ListProfiles(ctx, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("len(profiles) = %d, want 2", len(profiles))
	}
	for _, p := range profiles {
		if p.Email == "" || p.ID == "" {
			t.Errorf("profile missing public fields: %+v", p)
		}
	}
}
