package goIdentity

import (
	"context"
	"errors"

	internalflows "github.com/MrEthical07/goIdentity/internal/flows"
	"github.com/MrEthical07/goIdentity/internal/rate"
)

// Login authenticates email and password and issues a token.
//
// An unknown email, an empty password and a wrong password all return
// ErrInvalidCredentials. While the failed-login limiter is enabled and the
// budget for the email (or client IP) is spent, Login returns
// ErrLoginRateLimited without touching the store. Store and limiter failures
// are returned wrapped and never reported as bad credentials.
func (e *Engine) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if e == nil || e.store == nil || e.issuer == nil {
		return nil, ErrEngineNotReady
	}

	res, err := internalflows.RunLogin(ctx, NormalizeEmail(email), password, e.deps.Login)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Token:     res.Token.Token,
		TokenType: TokenTypeBearer,
		ExpiresAt: res.Token.ExpiresAt,
		Identity:  fromRecord(res.Identity),
	}, nil
}

func (e *Engine) loginFlowDeps() internalflows.LoginDeps {
	deps := internalflows.LoginDeps{
		ClientIPFromContext: clientIPFromContext,
		FindByEmail: func(ctx context.Context, email string) (internalflows.IdentityRecord, error) {
			id, err := e.store.FindByEmail(ctx, email)
			if err != nil {
				return internalflows.IdentityRecord{}, err
			}
			return toRecord(id), nil
		},
		VerifyPassword:       e.hasher.Verify,
		PasswordNeedsUpgrade: e.hasher.NeedsUpgrade,
		EqualizeTiming: func(password string) {
			e.hasher.Verify(password, e.dummyHash)
		},
		IssueToken: e.issueToken,
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		EmitAudit: e.emitAudit,
		Warn: func(msg string, err error) {
			e.logger.Warn().Err(err).Msg(msg)
		},
		Metrics: internalflows.LoginMetrics{
			LoginSuccess:          int(MetricLoginSuccess),
			LoginFailure:          int(MetricLoginFailure),
			LoginUserNotFound:     int(MetricLoginUserNotFound),
			LoginPasswordMismatch: int(MetricLoginPasswordMismatch),
			LoginRateLimited:      int(MetricLoginRateLimited),
			TokenIssued:           int(MetricTokenIssued),
		},
		Events: internalflows.LoginEvents{
			LoginSuccess:     auditEventLoginSuccess,
			LoginFailure:     auditEventLoginFailure,
			LoginRateLimited: auditEventLoginRateLimited,
		},
		Errors: internalflows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			LoginRateLimited:   ErrLoginRateLimited,
			IdentityNotFound:   ErrIdentityNotFound,
		},
	}

	if e.limiter != nil {
		deps.CheckLoginRate = func(ctx context.Context, email, ip string) error {
			return mapLimiterError(e.limiter.CheckLogin(ctx, email, ip))
		}
		deps.IncrementLoginRate = func(ctx context.Context, email, ip string) error {
			return mapLimiterError(e.limiter.IncrementLogin(ctx, email, ip))
		}
		deps.ResetLoginRate = e.limiter.ResetLogin
	}

	return deps
}

func mapLimiterError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, rate.ErrRateLimited) {
		return ErrLoginRateLimited
	}
	return err
}
