package goIdentity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/keys"
	"github.com/MrEthical07/goIdentity/password"
)

// Config is the complete Engine configuration. Field tags name the keys used
// by the process config loader.
type Config struct {
	Token    TokenConfig     `koanf:"token"`
	Keys     KeyConfig       `koanf:"keys"`
	Password password.Config `koanf:"password"`
	Security SecurityConfig  `koanf:"security"`
	Audit    AuditConfig     `koanf:"audit"`
	Metrics  MetricsConfig   `koanf:"metrics"`
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls issued tokens.
type TokenConfig struct {
	TTL    time.Duration `koanf:"ttl"`
	Issuer string        `koanf:"issuer"`
}

/*
====================================
KEY CONFIG
====================================
*/

// KeyConfig controls the signing keypair when none is supplied to the
// Builder. An empty Path means a fresh keypair per process: tokens issued
// before a restart stop verifying.
type KeyConfig struct {
	Bits              int    `koanf:"bits"`
	Path              string `koanf:"path"`
	GenerateIfMissing bool   `koanf:"generate"`
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls the Redis-backed failed-login limiter.
type SecurityConfig struct {
	EnableLoginThrottle   bool          `koanf:"loginthrottle"`
	EnableIPThrottle      bool          `koanf:"ipthrottle"`
	MaxLoginAttempts      int           `koanf:"maxattempts"`
	LoginCooldownDuration time.Duration `koanf:"cooldown"`
	RedisPrefix           string        `koanf:"redisprefix"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls asynchronous audit delivery.
type AuditConfig struct {
	Enabled    bool `koanf:"enabled"`
	BufferSize int  `koanf:"buffer"`
	DropIfFull bool `koanf:"dropiffull"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `koanf:"enabled"`
	EnableLatencyHistograms bool `koanf:"latency"`
}

// DefaultConfig returns the production defaults: 24h tokens, 2048-bit
// ephemeral keys, argon2id hashing, limiter and audit off, metrics on.
func DefaultConfig() Config {
	cfg := Config{
		Token: TokenConfig{
			TTL: jwt.DefaultTTL,
		},
		Keys: KeyConfig{
			Bits:              keys.DefaultBits,
			GenerateIfMissing: true,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:   false,
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			RedisPrefix:           "gi",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
	cfg.Password.ApplyDefaults()
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Token.TTL <= 0 {
		return errors.New("Token TTL must be > 0")
	}
	if c.Token.Issuer != strings.TrimSpace(c.Token.Issuer) {
		return errors.New("Token Issuer must not have surrounding whitespace")
	}

	if c.Keys.Bits != 0 && c.Keys.Bits < keys.MinBits {
		return fmt.Errorf("Keys Bits must be >= %d", keys.MinBits)
	}

	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("Password: %w", err)
	}

	if c.Security.EnableIPThrottle && !c.Security.EnableLoginThrottle {
		return errors.New("Security EnableIPThrottle requires EnableLoginThrottle")
	}
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security LoginCooldownDuration must be > 0")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Enabled")
	}

	return nil
}
