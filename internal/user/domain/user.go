package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// User is the account the lifecycle engine issues claims for. The engine
// treats it as read-only context except for password changes and email
// verification.
type User struct {
	ID           string
	Email        string // stored lower-case
	Name         string
	PasswordHash string
	Role         Role
	IsActive     bool
	IsVerified   bool
	CreatedAt    time.Time
}

// Role is the closed set of user roles carried in token claims.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// ParseRole converts a stored string to a Role, rejecting anything outside
// the closed set so invalid roles are unrepresentable downstream.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleUser, RoleGuest:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// NormalizeEmail lower-cases and trims an email for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// Validate checks the user for persistence. Returns an error describing the
// first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Email != NormalizeEmail(u.Email) {
		return errors.New("email must be normalized")
	}
	if _, err := ParseRole(string(u.Role)); err != nil {
		return err
	}
	return nil
}
