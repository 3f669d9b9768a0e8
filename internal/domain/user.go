// Package domain contains entity without logic, just meta-data
package domain

import (
	"strings"
	"time"
)

const (
	MaxUsernameLen = 36
	MaxEmailLen    = 254
	MinPasswordLen = 1
)

var (
	ErrUsernameTooLong = Validation("username too long")
	ErrUsernameEmpty   = Validation("username empty")
	ErrEmailInvalid    = Validation("email invalid")
	ErrPasswordEmpty   = Validation("password empty")
)

type Username string

type User struct {
	ID           uint      `json:"-"`
	Username     Username  `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
// The password hash is filled in by the user directory.
func NewUser(username, email string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email == "" || len(email) > MaxEmailLen || !strings.Contains(email, "@") {
		return nil, ErrEmailInvalid
	}
	return &User{Username: Username(username), Email: email}, nil
}

func ValidateUsername(username string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
