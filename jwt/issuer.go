package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MrEthical07/goIdentity/keys"
)

// DefaultTTL is the token lifetime used when none is configured.
const DefaultTTL = 24 * time.Hour

// IssuerConfig tunes token issuance.
type IssuerConfig struct {
	// TTL is the default lifetime. Zero selects DefaultTTL.
	TTL time.Duration
	// Issuer is written to the "iss" claim when non-empty.
	Issuer string
}

// Issuer signs identity tokens with a single keypair.
//
// Issuer instances are immutable after construction and safe for concurrent use.
type Issuer struct {
	kp     *keys.Keypair
	ttl    time.Duration
	issuer string
}

// Token is a signed token together with the timestamps written into it.
// Timestamps carry the claim precision of one second.
type Token struct {
	Raw       string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewIssuer validates cfg and binds it to kp.
func NewIssuer(kp *keys.Keypair, cfg IssuerConfig) (*Issuer, error) {
	if kp == nil {
		return nil, errors.New("jwt: issuer requires a keypair")
	}
	if cfg.TTL < 0 {
		return nil, errors.New("jwt: invalid TTL configuration")
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}

	return &Issuer{
		kp:     kp,
		ttl:    cfg.TTL,
		issuer: strings.TrimSpace(cfg.Issuer),
	}, nil
}

// TTL returns the configured default lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// PublicKeyExport returns the export of the signing keypair's public half.
func (i *Issuer) PublicKeyExport() string {
	return i.kp.PublicKeyExport()
}

// Issue signs a token for subject valid over [now, now+ttl]. A non-positive
// ttl selects the configured default.
func (i *Issuer) Issue(subject Subject, now time.Time, ttl time.Duration) (string, error) {
	tok, err := i.Mint(subject, now, ttl)
	if err != nil {
		return "", err
	}
	return tok.Raw, nil
}

// Mint is Issue returning the token's timestamps and identifier as well.
func (i *Issuer) Mint(subject Subject, now time.Time, ttl time.Duration) (Token, error) {
	if strings.TrimSpace(subject.Email) == "" {
		return Token{}, errors.New("jwt: subject email is required")
	}
	if ttl <= 0 {
		ttl = i.ttl
	}

	iat := jwt.NewNumericDate(now)
	exp := jwt.NewNumericDate(now.Add(ttl))
	jti := uuid.NewString()

	claims := Claims{
		FullName: subject.FullName,
		ID:       subject.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.Email,
			Issuer:    i.issuer,
			IssuedAt:  iat,
			ExpiresAt: exp,
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = i.kp.KeyID()

	signed, err := token.SignedString(i.kp.PrivateKey())
	if err != nil {
		return Token{}, fmt.Errorf("jwt: sign token: %w", err)
	}

	return Token{
		Raw:       signed,
		ID:        jti,
		IssuedAt:  iat.Time,
		ExpiresAt: exp.Time,
	}, nil
}
