package goIdentity

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/goIdentity/internal/audit"
	"github.com/MrEthical07/goIdentity/internal/flows"
	"github.com/MrEthical07/goIdentity/internal/rate"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/keys"
	"github.com/MrEthical07/goIdentity/password"
)

// Engine registers and authenticates identities and verifies the tokens it
// issues. Build one with New().Build(); a built Engine is safe for
// concurrent use.
type Engine struct {
	config    Config
	store     UserStore
	keypair   *keys.Keypair
	issuer    *jwt.Issuer
	hasher    *password.Multi
	dummyHash string
	limiter   *rate.Limiter
	audit     *audit.Dispatcher
	metrics   *Metrics
	logger    zerolog.Logger
	now       func() time.Time

	deps flows.Deps
}

// Close flushes pending audit events and stops the audit worker.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Metrics exposes the live counters, for exporters.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// PublicKey returns the export form of the signing public key: standard
// base64 of its DER SubjectPublicKeyInfo encoding.
func (e *Engine) PublicKey() string {
	if e == nil || e.keypair == nil {
		return ""
	}
	return e.keypair.PublicKeyExport()
}

// PublicKeyPEM returns the signing public key as a PEM block.
func (e *Engine) PublicKeyPEM() string {
	if e == nil || e.keypair == nil {
		return ""
	}
	return e.keypair.PublicKeyPEM()
}

// KeyID returns the identifier written to the kid header of issued tokens.
func (e *Engine) KeyID() string {
	if e == nil || e.keypair == nil {
		return ""
	}
	return e.keypair.KeyID()
}

// Verifier returns a standalone verifier bound to the engine's public key
// and clock.
func (e *Engine) Verifier() *jwt.Verifier {
	if e == nil || e.keypair == nil {
		return jwt.NewVerifier(nil)
	}
	return jwt.NewVerifier(e.keypair.PublicKey(), jwt.WithClock(e.now))
}

// VerifyToken checks token against the engine's own key at the current
// instant. Failures are one of the jwt package sentinels.
func (e *Engine) VerifyToken(ctx context.Context, token string) (*jwt.Claims, error) {
	if e == nil || e.keypair == nil {
		return nil, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
		defer func() {
			e.metrics.Observe(MetricVerifyLatency, time.Since(start))
		}()
	}

	claims, err := jwt.Verify(token, e.keypair.PublicKey(), e.now())
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		e.metricInc(verifyReasonMetric(err))
		e.emitAudit(ctx, auditEventVerifyFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"reason": jwt.Reason(err),
			}
		})
		return nil, err
	}

	e.metricInc(MetricVerifySuccess)
	return claims, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func verifyReasonMetric(err error) MetricID {
	switch jwt.Reason(err) {
	case "expired":
		return MetricVerifyExpired
	case "invalid_signature":
		return MetricVerifyInvalidSignature
	case "not_yet_valid":
		return MetricVerifyNotYetValid
	default:
		return MetricVerifyMalformed
	}
}
