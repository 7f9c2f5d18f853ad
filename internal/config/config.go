// Package config loads identityd process configuration.
//
// Sources, lowest priority first: built-in defaults, a YAML file, a .env
// file, IDENTITY_* environment variables, then command-line flags.
// Environment keys map to config paths by lowercasing and replacing "_"
// with ".": IDENTITY_TOKEN_TTL sets token.ttl.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/internal/fieldcrypt"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config is the full process configuration. The embedded engine config is
// flattened, so its sections (token, keys, password, security, audit,
// metrics) sit at the top level.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Log    LogConfig    `koanf:"log"`
	Store  StoreConfig  `koanf:"store"`
	Redis  RedisConfig  `koanf:"redis"`
	Fields FieldsConfig `koanf:"fields"`

	goIdentity.Config `koanf:",squash"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"readtimeout"`
	WriteTimeout    time.Duration `koanf:"writetimeout"`
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json | console
}

// StoreConfig selects the user store. DSN is only read by the postgres
// driver; Prefix only by the redis driver.
type StoreConfig struct {
	Driver      string        `koanf:"driver"`
	DSN         string        `koanf:"dsn"`
	Migrate     bool          `koanf:"migrate"`
	Retries     uint64        `koanf:"retries"`
	BaseBackoff time.Duration `koanf:"backoff"`
	Prefix      string        `koanf:"prefix"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// FieldsConfig selects how clients encode request fields.
type FieldsConfig struct {
	Mode   string `koanf:"mode"`
	Secret string `koanf:"secret"`
}

// Default returns the configuration used when no source overrides a key.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Driver:      StoreMemory,
			Retries:     5,
			BaseBackoff: 500 * time.Millisecond,
			Prefix:      "gi",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Fields: FieldsConfig{
			Mode: string(fieldcrypt.ModePlain),
		},
		Config: goIdentity.DefaultConfig(),
	}
}

// Validate checks process settings and then the engine settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q must be json or console", c.Log.Format)
	}

	switch c.Store.Driver {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("store.driver %q must be memory, redis or postgres", c.Store.Driver)
	}

	if c.NeedsRedis() && c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}

	switch fieldcrypt.Mode(c.Fields.Mode) {
	case fieldcrypt.ModePlain:
	case fieldcrypt.ModeAESGCM, fieldcrypt.ModeChaCha20:
		if c.Fields.Secret == "" {
			return fmt.Errorf("fields.secret is required for mode %s", c.Fields.Mode)
		}
	default:
		return fmt.Errorf("fields.mode %q is not supported", c.Fields.Mode)
	}

	if err := c.Config.Validate(); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	return nil
}

// NeedsRedis reports whether any component uses the Redis client.
func (c *Config) NeedsRedis() bool {
	return c.Store.Driver == StoreRedis || c.Security.EnableLoginThrottle
}
