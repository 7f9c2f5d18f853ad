package goIdentity

import (
	"context"
	"strings"
	"time"
)

// TokenTypeBearer is the token type reported with every issued token.
const TokenTypeBearer = "Bearer"

// Identity is a registered principal. PasswordHash always holds an encoded
// hash, never the plaintext.
type Identity struct {
	ID                string
	Email             string
	FullName          string
	PasswordHash      string
	ProfessionalTitle string
	Company           string
}

// UserStore is the persistence contract the Engine depends on.
//
// Save must enforce one identity per email atomically (a real unique
// constraint, not a prior read) and return ErrDuplicateIdentity when it
// rejects a write. FindByEmail returns ErrIdentityNotFound when nothing
// matches. Emails passed in are already normalized.
type UserStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (Identity, error)
	Save(ctx context.Context, identity Identity) (Identity, error)
}

// RegisterRequest is decoded registration input.
type RegisterRequest struct {
	Email             string
	Password          string
	FullName          string
	ProfessionalTitle string
	Company           string
}

// AuthResult is returned by Register and Login. Identity never carries the
// password hash.
type AuthResult struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
	Identity  Identity
}

// NormalizeEmail trims surrounding whitespace and lowercases email. Stores
// and lookups always see normalized addresses.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
