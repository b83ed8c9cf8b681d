package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/shaiq/auth-practice/internal/apperror"
	"github.com/shaiq/auth-practice/internal/model"
	"github.com/shaiq/auth-practice/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, password_hash, role, google_id, first_name,
	last_name, avatar_url, password_reset_token, password_reset_expires,
	created_at, updated_at`

// Create inserts a new user. The caller's struct receives the generated ID
// and timestamps. An email collision returns apperror.ErrConflict.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, role, google_id,
			first_name, last_name, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.GoogleID,
		user.FirstName,
		user.LastName,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return apperror.Conflict("user", "email")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// FindByEmail looks a user up by email. The email column collates NOCASE,
// so the match is case-insensitive.
func (db *DB) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.findUser(ctx, "email = ?", email, "email "+email)
}

// FindByID looks a user up by internal ID.
func (db *DB) FindByID(ctx context.Context, id string) (*model.User, error) {
	return db.findUser(ctx, "id = ?", id, "id "+id)
}

// FindByResetToken looks a user up by an outstanding password reset token.
// Expiry is not checked here — that is the service's call to make.
func (db *DB) FindByResetToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperror.NotFound("user", "reset token")
	}
	return db.findUser(ctx, "password_reset_token = ?", token, "reset token")
}

func (db *DB) findUser(ctx context.Context, where string, arg any, identifier string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", identifier)
		}
		return nil, fmt.Errorf("sqlite: finding user: %w", err)
	}

	return user, nil
}

// List returns users ordered by creation time.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at LIMIT ? OFFSET ?`,
		limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

// Update stores the user's mutable fields. An email collision with another
// account returns apperror.ErrConflict.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, password_hash = ?, role = ?, google_id = ?,
			first_name = ?, last_name = ?, avatar_url = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.GoogleID,
		user.FirstName,
		user.LastName,
		user.AvatarURL,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return apperror.Conflict("user", "email")
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	return requireRow(res, "user", user.ID)
}

// UpdatePassword stores a new hash and clears both reset fields in one
// UPDATE, so concurrent reset attempts cannot both consume the same token.
func (db *DB) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, password_reset_token = NULL,
			password_reset_expires = NULL, updated_at = ?
		 WHERE id = ?`,
		passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for user %s: %w", id, err)
	}

	return requireRow(res, "user", id)
}

// UpdatePasswordResetToken stores a reset token and its expiry together.
func (db *DB) UpdatePasswordResetToken(ctx context.Context, id, token string, expiry time.Time) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_reset_token = ?, password_reset_expires = ?,
			updated_at = ?
		 WHERE id = ?`,
		token, expiry, time.Now(), id)
	if err != nil {
		return fmt.Errorf("sqlite: storing reset token for user %s: %w", id, err)
	}

	return requireRow(res, "user", id)
}

// ClearPasswordResetToken removes both reset fields.
func (db *DB) ClearPasswordResetToken(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_reset_token = NULL,
			password_reset_expires = NULL, updated_at = ?
		 WHERE id = ?`,
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("sqlite: clearing reset token for user %s: %w", id, err)
	}

	return requireRow(res, "user", id)
}

// Delete removes the user. Posts cascade via the foreign key.
func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	return requireRow(res, "user", id)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u           model.User
		resetToken  sql.NullString
		resetExpiry sql.NullTime
	)

	err := s.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.GoogleID,
		&u.FirstName,
		&u.LastName,
		&u.AvatarURL,
		&resetToken,
		&resetExpiry,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.PasswordResetToken = resetToken.String
	u.PasswordResetExpires = resetExpiry.Time

	return &u, nil
}

func requireRow(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, "id "+id)
	}
	return nil
}

// isUniqueViolation matches the driver's unique-constraint error for the
// given column. modernc.org/sqlite reports these as plain error strings.
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
