package account

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotActivated       = errors.New("account not activated")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password too short")
)

// User maps to the users table. PasswordHash is a bcrypt digest and never
// leaves the package; tokens are single-use and cleared once consumed.
type User struct {
	ID           string `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	Email        string `db:"email" json:"email"`
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         string `db:"role" json:"role"`
	Activated    bool   `db:"activated" json:"activated"`

	InviteToken        *string    `db:"invite_token" json:"-"`
	InviteTokenExpires *time.Time `db:"invite_token_expires" json:"-"`
	ResetToken         *string    `db:"reset_token" json:"-"`
	ResetTokenExpires  *time.Time `db:"reset_token_expires" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
