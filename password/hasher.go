package password

import (
	"errors"
	"fmt"
)

// ErrEmptyPassword is returned by Hash for an empty plaintext.
var ErrEmptyPassword = errors.New("password must not be empty")

// Hasher is a one-way credential encoder. Hash embeds its salt and
// parameters in the returned string so Verify needs no external state.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

// Algorithm names a hashing scheme.
type Algorithm string

const (
	// AlgorithmArgon2id is the default scheme for new hashes.
	AlgorithmArgon2id Algorithm = "argon2id"
	// AlgorithmBcrypt matches hashes produced by the legacy BCrypt encoder.
	AlgorithmBcrypt Algorithm = "bcrypt"
)

// Config selects and tunes the hashing scheme.
type Config struct {
	Algorithm   Algorithm `koanf:"algorithm"`
	Memory      uint32    `koanf:"memory"` // KiB
	Time        uint32    `koanf:"time"`
	Parallelism uint8     `koanf:"parallelism"`
	SaltLength  uint32    `koanf:"saltlength"`
	KeyLength   uint32    `koanf:"keylength"`
	BcryptCost  int       `koanf:"bcryptcost"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmArgon2id
	}
	if c.Memory == 0 {
		c.Memory = 64 * 1024
	}
	if c.Time == 0 {
		c.Time = 3
	}
	if c.Parallelism == 0 {
		c.Parallelism = 2
	}
	if c.SaltLength == 0 {
		c.SaltLength = 16
	}
	if c.KeyLength == 0 {
		c.KeyLength = 32
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = defaultBcryptCost
	}
}

// Validate checks the selected algorithm and its parameters.
func (c Config) Validate() error {
	c.ApplyDefaults()
	switch c.Algorithm {
	case AlgorithmArgon2id:
		return validateArgon2(c)
	case AlgorithmBcrypt:
		return validateBcryptCost(c.BcryptCost)
	default:
		return fmt.Errorf("unsupported password algorithm %q", c.Algorithm)
	}
}

// encoding is implemented by hashers that can recognize their own output.
type encoding interface {
	Hasher
	Handles(encodedHash string) bool
}

// Multi hashes with a primary scheme and verifies against any known scheme,
// so stored hashes from an earlier scheme keep verifying.
type Multi struct {
	primary  encoding
	fallback []encoding
}

// New builds a Multi hasher whose primary scheme is cfg.Algorithm.
// Both argon2id and bcrypt hashes are always accepted by Verify.
func New(cfg Config) (*Multi, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a, err := NewArgon2(cfg)
	if err != nil {
		return nil, err
	}
	b, err := NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	if cfg.Algorithm == AlgorithmBcrypt {
		return &Multi{primary: b, fallback: []encoding{a}}, nil
	}
	return &Multi{primary: a, fallback: []encoding{b}}, nil
}

// Hash encodes password with the primary scheme.
func (m *Multi) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

// Verify dispatches on the hash prefix. Unknown encodings verify as false.
func (m *Multi) Verify(password, encodedHash string) bool {
	if m.primary.Handles(encodedHash) {
		return m.primary.Verify(password, encodedHash)
	}
	for _, h := range m.fallback {
		if h.Handles(encodedHash) {
			return h.Verify(password, encodedHash)
		}
	}
	return false
}

// NeedsUpgrade reports whether encodedHash was not produced by the primary
// scheme with its current parameters.
func (m *Multi) NeedsUpgrade(encodedHash string) bool {
	if !m.primary.Handles(encodedHash) {
		return true
	}
	if u, ok := m.primary.(interface{ NeedsUpgrade(string) bool }); ok {
		return u.NeedsUpgrade(encodedHash)
	}
	return false
}
