package flows

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingIdentityID is returned when the store accepted a registration
// but reported no identifier for it.
var ErrMissingIdentityID = errors.New("store assigned no identity id")

// RegisterRequest carries already-decoded registration input. Email is
// expected to be normalized by the caller.
type RegisterRequest struct {
	Email             string
	Password          string
	FullName          string
	ProfessionalTitle string
	Company           string
}

// RegisterResult is the persisted identity and the token issued for it.
type RegisterResult struct {
	Identity IdentityRecord
	Token    IssuedToken
}

// RegisterMetrics carries metric IDs needed by the registration flow.
type RegisterMetrics struct {
	RegisterSuccess   int
	RegisterDuplicate int
	RegisterInvalid   int
	TokenIssued       int
}

// RegisterEvents carries audit event names used by the registration flow.
type RegisterEvents struct {
	RegisterSuccess   string
	RegisterFailure   string
	RegisterDuplicate string
}

// RegisterErrors carries host-level sentinel errors used by the registration flow.
type RegisterErrors struct {
	EngineNotReady      error
	InvalidRegistration error
	IdentityExists      error
	DuplicateIdentity   error
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	ExistsByEmail func(context.Context, string) (bool, error)
	HashPassword  func(string) (string, error)
	SaveIdentity  func(context.Context, IdentityRecord) (IdentityRecord, error)
	IssueToken    func(IdentityRecord) (IssuedToken, error)

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  RegisterErrors
}

// RunRegister executes Validate → CheckUniqueness → HashPassword → Persist →
// IssueToken. It performs one existence check and at most one write; every
// failure before Persist leaves the store untouched.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) (*RegisterResult, error) {
	normalizeRegisterDeps(&deps)

	if deps.ExistsByEmail == nil || deps.HashPassword == nil || deps.SaveIdentity == nil || deps.IssueToken == nil {
		return nil, deps.Errors.EngineNotReady
	}

	if reason := validateRegisterRequest(req); reason != "" {
		deps.MetricInc(deps.Metrics.RegisterInvalid)
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", deps.Errors.InvalidRegistration, func() map[string]string {
			return map[string]string{
				"identifier": req.Email,
				"reason":     reason,
			}
		})
		return nil, fmt.Errorf("%w: %s", deps.Errors.InvalidRegistration, reason)
	}

	exists, err := deps.ExistsByEmail(ctx, req.Email)
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"identifier": req.Email,
				"reason":     "store_lookup_failed",
			}
		})
		return nil, fmt.Errorf("check identity: %w", err)
	}
	if exists {
		return nil, registerDuplicate(ctx, req.Email, deps)
	}

	passwordHash, err := deps.HashPassword(req.Password)
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"identifier": req.Email,
				"reason":     "hash_failed",
			}
		})
		return nil, fmt.Errorf("hash password: %w", err)
	}
	req.Password = ""

	created, err := deps.SaveIdentity(ctx, IdentityRecord{
		Email:             req.Email,
		FullName:          req.FullName,
		PasswordHash:      passwordHash,
		ProfessionalTitle: req.ProfessionalTitle,
		Company:           req.Company,
	})
	if err != nil {
		// A concurrent registration won the unique constraint.
		if deps.Errors.DuplicateIdentity != nil && errors.Is(err, deps.Errors.DuplicateIdentity) {
			return nil, registerDuplicate(ctx, req.Email, deps)
		}
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"identifier": req.Email,
				"reason":     "store_save_failed",
			}
		})
		return nil, fmt.Errorf("persist identity: %w", err)
	}
	// The record is already written at this point; the failure is reported as
	// a storage fault, not as an engine or caller error.
	if created.ID == "" {
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", ErrMissingIdentityID, func() map[string]string {
			return map[string]string{
				"identifier": req.Email,
				"reason":     "missing_identity_id",
			}
		})
		return nil, fmt.Errorf("persist identity: %w", ErrMissingIdentityID)
	}

	token, err := deps.IssueToken(created)
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, created.ID, err, func() map[string]string {
			return map[string]string{
				"identifier": req.Email,
				"reason":     "token_issue_failed",
			}
		})
		return nil, fmt.Errorf("issue token: %w", err)
	}

	deps.MetricInc(deps.Metrics.TokenIssued)
	deps.MetricInc(deps.Metrics.RegisterSuccess)
	deps.EmitAudit(ctx, deps.Events.RegisterSuccess, true, created.ID, nil, func() map[string]string {
		return map[string]string{
			"identifier": req.Email,
		}
	})

	created.PasswordHash = ""
	return &RegisterResult{Identity: created, Token: token}, nil
}

func registerDuplicate(ctx context.Context, email string, deps RegisterDeps) error {
	deps.MetricInc(deps.Metrics.RegisterDuplicate)
	deps.EmitAudit(ctx, deps.Events.RegisterDuplicate, false, "", deps.Errors.IdentityExists, func() map[string]string {
		return map[string]string{
			"identifier": email,
		}
	})
	return deps.Errors.IdentityExists
}

func validateRegisterRequest(req RegisterRequest) string {
	switch {
	case req.Email == "":
		return "empty_email"
	case req.Password == "":
		return "empty_password"
	case req.FullName == "":
		return "empty_full_name"
	default:
		return ""
	}
}

func normalizeRegisterDeps(deps *RegisterDeps) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
}
