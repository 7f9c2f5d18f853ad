package jwt

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verify parses token and checks it against pub at instant now.
//
// Checks run in order: structure, then signature and algorithm (RS256 only),
// then the validity window. A token is valid for iat <= now <= exp. Missing
// exp, iat or sub claims are reported as ErrMalformedToken.
//
// Segments are decoded strictly, so a signature whose trailing padding bits
// were altered is rejected rather than decoding to the original bytes.
//
// Verify depends only on its arguments.
func Verify(token string, pub *rsa.PublicKey, now time.Time) (*Claims, error) {
	if pub == nil {
		return nil, fmt.Errorf("%w: no verification key", ErrInvalidSignature)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return pub, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) && corruptSignatureSegment(token) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: token rejected", ErrInvalidSignature)
	}

	switch {
	case claims.ExpiresAt == nil:
		return nil, fmt.Errorf("%w: exp claim is required", ErrMalformedToken)
	case claims.IssuedAt == nil:
		return nil, fmt.Errorf("%w: iat claim is required", ErrMalformedToken)
	case claims.Subject == "":
		return nil, fmt.Errorf("%w: sub claim is required", ErrMalformedToken)
	}

	if now.After(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: expired at %s", ErrExpired, claims.ExpiresAt.UTC().Format(time.RFC3339))
	}
	if now.Before(claims.IssuedAt.Time) {
		return nil, fmt.Errorf("%w: issued at %s", ErrNotYetValid, claims.IssuedAt.UTC().Format(time.RFC3339))
	}

	return claims, nil
}

// corruptSignatureSegment reports whether token has well-formed header and
// claims segments but a signature segment that does not decode strictly.
func corruptSignatureSegment(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts[:2] {
		if _, err := segmentEncoding.DecodeString(part); err != nil {
			return false
		}
	}
	_, err := segmentEncoding.DecodeString(parts[2])
	return err != nil
}

var segmentEncoding = base64.RawURLEncoding.Strict()

// Verifier binds a public key and a clock for repeated verification.
type Verifier struct {
	pub *rsa.PublicKey
	now func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithClock replaces time.Now as the verification instant.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewVerifier returns a Verifier for pub.
func NewVerifier(pub *rsa.PublicKey, opts ...VerifierOption) *Verifier {
	v := &Verifier{pub: pub, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks token at the verifier's current instant.
func (v *Verifier) Verify(token string) (*Claims, error) {
	return Verify(token, v.pub, v.now())
}
