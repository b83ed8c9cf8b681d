// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is the authorization role attached to a user account.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModerator
}

// User represents a registered account.
//
// PasswordHash is empty for accounts created through Google OAuth — those
// users have no local credential and can only sign in via the provider.
// PasswordResetToken and PasswordResetExpires are set and cleared together;
// a token whose expiry has passed is invalid even while still stored.
//
// The hash and reset fields are never serialized (`json:"-"`).
type User struct {
	ID                   string    `json:"id"        db:"id"`
	Email                string    `json:"email"     db:"email"`
	PasswordHash         string    `json:"-"         db:"password_hash"`
	Role                 Role      `json:"role"      db:"role"`
	GoogleID             string    `json:"-"         db:"google_id"`
	FirstName            string    `json:"firstName" db:"first_name"`
	LastName             string    `json:"lastName"  db:"last_name"`
	AvatarURL            string    `json:"avatarUrl" db:"avatar_url"`
	PasswordResetToken   string    `json:"-"         db:"password_reset_token"`
	PasswordResetExpires time.Time `json:"-"         db:"password_reset_expires"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time `json:"updatedAt" db:"updated_at"`
}

// DisplayName returns the name used in outbound emails. Falls back to
// "User" when the account has no profile name (the original seed accounts
// and some OAuth profiles omit it).
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return "User"
}

// Profile is the public projection of a user account returned by the
// profile endpoints.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"avatarUrl"`
}

// ProfileOf builds the public projection for a user.
func ProfileOf(u *User) Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: u.AvatarURL,
	}
}
