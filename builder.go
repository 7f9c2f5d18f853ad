package goIdentity

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MrEthical07/goIdentity/internal/audit"
	"github.com/MrEthical07/goIdentity/internal/rate"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/keys"
	"github.com/MrEthical07/goIdentity/password"
)

// Builder assembles an Engine. A Builder can be used for one Build only.
type Builder struct {
	config    Config
	store     UserStore
	keypair   *keys.Keypair
	redis     redis.UniversalClient
	logger    *zerolog.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithUserStore sets the identity store. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.store = store
	return b
}

// WithKeypair supplies the signing keypair. Without it Build loads or
// generates one from Config.Keys.
func (b *Builder) WithKeypair(kp *keys.Keypair) *Builder {
	b.keypair = kp
	return b
}

// WithRedis sets the client used by the login limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the engine logger. The default discards everything.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithAuditSink sets the destination for audit events. It only takes effect
// when Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock replaces time.Now for token timestamps and verification.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and constructs the Engine. Key
// generation failures are returned wrapping keys.ErrKeyGeneration and must
// stop process startup.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("user store required")
	}
	if cfg.Security.EnableLoginThrottle && b.redis == nil {
		return nil, errors.New("Security EnableLoginThrottle requires redis client")
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = *b.logger
	}
	logger = logger.With().Str("component", "identity").Logger()

	kp := b.keypair
	if kp == nil {
		loaded, generated, err := keys.LoadOrGenerate(cfg.Keys.Path, cfg.Keys.Bits, cfg.Keys.GenerateIfMissing)
		if err != nil {
			return nil, fmt.Errorf("signing key: %w", err)
		}
		switch {
		case cfg.Keys.Path == "":
			logger.Warn().Msg("using an ephemeral signing key; tokens will not verify after restart")
		case generated:
			logger.Info().Str("path", cfg.Keys.Path).Msg("generated signing key")
		}
		kp = loaded
	}

	hasher, err := password.New(cfg.Password)
	if err != nil {
		return nil, err
	}
	dummyHash, err := hasher.Hash("timing-equalizer")
	if err != nil {
		return nil, err
	}

	issuer, err := jwt.NewIssuer(kp, jwt.IssuerConfig{
		TTL:    cfg.Token.TTL,
		Issuer: cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:    cfg,
		store:     b.store,
		keypair:   kp,
		issuer:    issuer,
		hasher:    hasher,
		dummyHash: dummyHash,
		metrics:   NewMetrics(cfg.Metrics),
		logger:    logger,
		now:       now,
	}

	if cfg.Security.EnableLoginThrottle {
		engine.limiter = rate.New(b.redis, rate.Config{
			KeyPrefix:             cfg.Security.RedisPrefix,
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		})
	}

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	engine.deps = engine.buildFlowDeps()

	b.built = true

	logger.Info().
		Str("kid", kp.KeyID()).
		Int("key_bits", kp.Bits()).
		Dur("token_ttl", issuer.TTL()).
		Str("hash", string(cfg.Password.Algorithm)).
		Bool("login_throttle", engine.limiter != nil).
		Msg("identity engine ready")

	return engine, nil
}
