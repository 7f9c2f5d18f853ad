package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// DefaultBits is the RSA modulus size used when none is configured.
const DefaultBits = 2048

// MinBits is the smallest modulus accepted for signing or verification.
const MinBits = 2048

var (
	// ErrKeyGeneration is returned when a fresh keypair cannot be produced.
	ErrKeyGeneration = errors.New("key generation failed")
	// ErrMalformedKey is returned for exported keys that do not decode to an RSA public key.
	ErrMalformedKey = errors.New("malformed public key")
	// ErrWeakKey is returned for RSA keys below MinBits.
	ErrWeakKey = errors.New("rsa key is too small")
)

// Keypair is an RSA signing key and its cached public encodings.
//
// Keypair is immutable after construction and safe for concurrent use.
type Keypair struct {
	private *rsa.PrivateKey
	der     []byte
	export  string
	keyID   string
}

// Generate creates a keypair with the given modulus size. bits <= 0 selects
// DefaultBits.
func Generate(bits int) (*Keypair, error) {
	if bits <= 0 {
		bits = DefaultBits
	}
	if bits < MinBits {
		return nil, fmt.Errorf("%w: %d bits, need at least %d", ErrWeakKey, bits, MinBits)
	}

	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	return FromPrivateKey(priv)
}

// FromPrivateKey wraps an existing RSA key.
func FromPrivateKey(priv *rsa.PrivateKey) (*Keypair, error) {
	if priv == nil {
		return nil, errors.New("keys: nil private key")
	}
	if priv.N.BitLen() < MinBits {
		return nil, fmt.Errorf("%w: %d bits, need at least %d", ErrWeakKey, priv.N.BitLen(), MinBits)
	}
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("keys: invalid private key: %w", err)
	}

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("keys: marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)

	return &Keypair{
		private: priv,
		der:     der,
		export:  base64.StdEncoding.EncodeToString(der),
		keyID:   hex.EncodeToString(sum[:8]),
	}, nil
}

// PrivateKey returns the signing key. Callers must not modify it.
func (k *Keypair) PrivateKey() *rsa.PrivateKey {
	return k.private
}

// PublicKey returns the verification key.
func (k *Keypair) PublicKey() *rsa.PublicKey {
	return &k.private.PublicKey
}

// Bits returns the modulus size.
func (k *Keypair) Bits() int {
	return k.private.N.BitLen()
}

// KeyID is a short SHA-256 thumbprint of the SPKI encoding, used as the
// token "kid" header.
func (k *Keypair) KeyID() string {
	return k.keyID
}

// PublicKeyExport returns the public key as standard base64 of its
// SubjectPublicKeyInfo DER encoding.
func (k *Keypair) PublicKeyExport() string {
	return k.export
}

// PublicKeyPEM returns the public key as a PEM "PUBLIC KEY" block.
func (k *Keypair) PublicKeyPEM() string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: k.der}))
}

// DecodePublicKey is the inverse of PublicKeyExport. Every failure wraps
// ErrMalformedKey.
func DecodePublicKey(exported string) (*rsa.PublicKey, error) {
	trimmed := strings.TrimSpace(exported)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedKey)
	}

	der, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}

	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected key type %T", ErrMalformedKey, parsed)
	}
	if pub.N.BitLen() < MinBits {
		return nil, fmt.Errorf("%w: %d-bit modulus", ErrMalformedKey, pub.N.BitLen())
	}

	return pub, nil
}
