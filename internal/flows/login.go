package flows

import (
	"context"
	"errors"
	"fmt"
)

// LoginResult is the authenticated identity and its token.
type LoginResult struct {
	Identity IdentityRecord
	Token    IssuedToken
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess          int
	LoginFailure          int
	LoginUserNotFound     int
	LoginPasswordMismatch int
	LoginRateLimited      int
	TokenIssued           int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	LoginRateLimited   error
	IdentityNotFound   error
}

// LoginDeps captures login dependencies. The rate functions are optional;
// CheckLoginRate and IncrementLoginRate report an exhausted budget by
// returning an error matching Errors.LoginRateLimited.
type LoginDeps struct {
	ClientIPFromContext func(context.Context) string

	CheckLoginRate     func(context.Context, string, string) error
	IncrementLoginRate func(context.Context, string, string) error
	ResetLoginRate     func(context.Context, string) error

	FindByEmail          func(context.Context, string) (IdentityRecord, error)
	VerifyPassword       func(string, string) bool
	PasswordNeedsUpgrade func(string) bool
	// EqualizeTiming performs a throwaway hash verification so unknown
	// emails cost about as much as wrong passwords.
	EqualizeTiming func(string)
	IssueToken     func(IdentityRecord) (IssuedToken, error)

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      func(string, error)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin executes [RateCheck] → Lookup → VerifyPassword → IssueToken.
//
// Unknown email, empty password and wrong password all return
// Errors.InvalidCredentials; the distinct reason is only visible to metrics
// and audit. Storage errors other than "not found" are returned wrapped.
// The user store is never written.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*LoginResult, error) {
	normalizeLoginDeps(&deps)

	if deps.FindByEmail == nil || deps.VerifyPassword == nil || deps.IssueToken == nil {
		return nil, deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, email, ip); err != nil {
			if errors.Is(err, deps.Errors.LoginRateLimited) {
				return nil, loginRateLimited(ctx, email, "", deps)
			}
			return nil, fmt.Errorf("check login rate: %w", err)
		}
	}

	if email == "" || password == "" {
		reason := "empty_password"
		if email == "" {
			reason = "empty_identifier"
		}
		deps.EqualizeTiming(password)
		return nil, loginFailure(ctx, email, ip, "", reason, -1, deps)
	}

	user, err := deps.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, deps.Errors.IdentityNotFound) {
			deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", err, func() map[string]string {
				return map[string]string{
					"identifier": email,
					"reason":     "store_lookup_failed",
				}
			})
			return nil, fmt.Errorf("find identity: %w", err)
		}
		deps.EqualizeTiming(password)
		return nil, loginFailure(ctx, email, ip, "", "user_not_found", deps.Metrics.LoginUserNotFound, deps)
	}

	if !deps.VerifyPassword(password, user.PasswordHash) {
		return nil, loginFailure(ctx, email, ip, user.ID, "password_mismatch", deps.Metrics.LoginPasswordMismatch, deps)
	}
	password = ""

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, email); err != nil {
			deps.Warn("login rate reset failed", err)
		}
	}

	token, err := deps.IssueToken(user)
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, user.ID, err, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     "token_issue_failed",
			}
		})
		return nil, fmt.Errorf("issue token: %w", err)
	}

	upgrade := deps.PasswordNeedsUpgrade(user.PasswordHash)
	deps.MetricInc(deps.Metrics.TokenIssued)
	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, user.ID, nil, func() map[string]string {
		md := map[string]string{
			"identifier": email,
		}
		if upgrade {
			md["hash_upgrade"] = "recommended"
		}
		return md
	})

	user.PasswordHash = ""
	return &LoginResult{Identity: user, Token: token}, nil
}

// loginFailure records a failed attempt and returns the caller-facing error.
// reasonMetric < 0 skips the reason-specific counter.
func loginFailure(ctx context.Context, email, ip, userID, reason string, reasonMetric int, deps LoginDeps) error {
	if deps.IncrementLoginRate != nil && email != "" {
		if err := deps.IncrementLoginRate(ctx, email, ip); err != nil {
			if errors.Is(err, deps.Errors.LoginRateLimited) {
				return loginRateLimited(ctx, email, userID, deps)
			}
			deps.Warn("login rate increment failed", err)
		}
	}

	deps.MetricInc(deps.Metrics.LoginFailure)
	if reasonMetric >= 0 {
		deps.MetricInc(reasonMetric)
	}
	deps.EmitAudit(ctx, deps.Events.LoginFailure, false, userID, deps.Errors.InvalidCredentials, func() map[string]string {
		return map[string]string{
			"identifier": email,
			"reason":     reason,
		}
	})
	return deps.Errors.InvalidCredentials
}

func loginRateLimited(ctx context.Context, email, userID string, deps LoginDeps) error {
	deps.MetricInc(deps.Metrics.LoginRateLimited)
	deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, userID, deps.Errors.LoginRateLimited, func() map[string]string {
		return map[string]string{
			"identifier": email,
		}
	})
	return deps.Errors.LoginRateLimited
}

func normalizeLoginDeps(deps *LoginDeps) {
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.PasswordNeedsUpgrade == nil {
		deps.PasswordNeedsUpgrade = func(string) bool { return false }
	}
	if deps.EqualizeTiming == nil {
		deps.EqualizeTiming = func(string) {}
	}
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.Warn == nil {
		deps.Warn = func(string, error) {}
	}
}
