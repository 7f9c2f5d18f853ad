package password

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const defaultBcryptCost = 10

// Bcrypt hashes credentials with bcrypt. Its main job is verifying hashes
// carried over from the previous service, which used BCrypt with cost 10.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher with the given cost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if err := validateBcryptCost(cost); err != nil {
		return nil, err
	}
	return &Bcrypt{cost: cost}, nil
}

func (b *Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	// bcrypt silently truncates past 72 bytes; refuse instead.
	if len(password) > 72 {
		return "", fmt.Errorf("password: bcrypt input exceeds 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("password: bcrypt: %w", err)
	}
	return string(hash), nil
}

func (b *Bcrypt) Verify(password, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}

// Handles reports whether encodedHash carries a bcrypt prefix.
func (b *Bcrypt) Handles(encodedHash string) bool {
	return strings.HasPrefix(encodedHash, "$2a$") ||
		strings.HasPrefix(encodedHash, "$2b$") ||
		strings.HasPrefix(encodedHash, "$2y$")
}

func validateBcryptCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}
