package flows

import (
	"context"
	"time"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow implementation.
type Deps struct {
	Register RegisterDeps
	Login    LoginDeps
}

// IdentityRecord is the flow-local identity model.
type IdentityRecord struct {
	ID                string
	Email             string
	FullName          string
	PasswordHash      string
	ProfessionalTitle string
	Company           string
}

// IssuedToken is a signed token and its expiry.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// AuditFunc emits one audit event. metadata is only invoked when auditing is
// enabled.
type AuditFunc func(ctx context.Context, event string, success bool, userID string, err error, metadata func() map[string]string)

func noopAudit(context.Context, string, bool, string, error, func() map[string]string) {}

func noopMetric(int) {}
