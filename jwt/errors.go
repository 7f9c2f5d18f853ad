package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken is returned when a token cannot be parsed or lacks a required claim.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidSignature is returned for a bad signature or an algorithm other than RS256.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrExpired is returned when now is past the token's expiry.
	ErrExpired = errors.New("token expired")
	// ErrNotYetValid is returned when now is before the token's issued-at time.
	ErrNotYetValid = errors.New("token not yet valid")
)

// IsVerificationError reports whether err is one of the four verification failures.
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrNotYetValid)
}

// Reason returns a stable label for a verification failure.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrNotYetValid):
		return "not_yet_valid"
	default:
		return "unknown"
	}
}

// classify maps golang-jwt parse errors onto the package sentinels.
// Signature problems are checked before claim problems, matching the order
// in which the parser reports them.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %v", ErrNotYetValid, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
