package goIdentity

import (
	"context"

	internalflows "github.com/MrEthical07/goIdentity/internal/flows"
	"github.com/MrEthical07/goIdentity/jwt"
)

// Register creates an identity and issues its first token.
//
// The email is normalized before the uniqueness check. Missing email,
// password or full name returns ErrInvalidRegistration; an email that is
// already registered returns ErrIdentityExists, including when a concurrent
// registration wins the store's unique constraint. Store failures are
// returned wrapped. The returned Identity never carries the password hash.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if e == nil || e.store == nil || e.issuer == nil {
		return nil, ErrEngineNotReady
	}

	res, err := internalflows.RunRegister(ctx, internalflows.RegisterRequest{
		Email:             NormalizeEmail(req.Email),
		Password:          req.Password,
		FullName:          req.FullName,
		ProfessionalTitle: req.ProfessionalTitle,
		Company:           req.Company,
	}, e.deps.Register)
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

func (e *Engine) registerFlowDeps() internalflows.RegisterDeps {
	return internalflows.RegisterDeps{
		ExistsByEmail: e.store.ExistsByEmail,
		HashPassword:  e.hasher.Hash,
		SaveIdentity: func(ctx context.Context, rec internalflows.IdentityRecord) (internalflows.IdentityRecord, error) {
			saved, err := e.store.Save(ctx, fromRecord(rec))
			if err != nil {
				return internalflows.IdentityRecord{}, err
			}
			return toRecord(saved), nil
		},
		IssueToken: e.issueToken,
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		EmitAudit: e.emitAudit,
		Metrics: internalflows.RegisterMetrics{
			RegisterSuccess:   int(MetricRegisterSuccess),
			RegisterDuplicate: int(MetricRegisterDuplicate),
			RegisterInvalid:   int(MetricRegisterInvalid),
			TokenIssued:       int(MetricTokenIssued),
		},
		Events: internalflows.RegisterEvents{
			RegisterSuccess:   auditEventRegisterSuccess,
			RegisterFailure:   auditEventRegisterFailure,
			RegisterDuplicate: auditEventRegisterDuplicate,
		},
		Errors: internalflows.RegisterErrors{
			EngineNotReady:      ErrEngineNotReady,
			InvalidRegistration: ErrInvalidRegistration,
			IdentityExists:      ErrIdentityExists,
			DuplicateIdentity:   ErrDuplicateIdentity,
		},
	}
}

func (e *Engine) issueToken(rec internalflows.IdentityRecord) (internalflows.IssuedToken, error) {
	tok, err := e.issuer.Mint(jwt.Subject{
		Email:    rec.Email,
		FullName: rec.FullName,
		ID:       rec.ID,
	}, e.now(), 0)
	if err != nil {
		return internalflows.IssuedToken{}, err
	}
	return internalflows.IssuedToken{Token: tok.Raw, ExpiresAt: tok.ExpiresAt}, nil
}

func (e *Engine) buildFlowDeps() internalflows.Deps {
	return internalflows.Deps{
		Register: e.registerFlowDeps(),
		Login:    e.loginFlowDeps(),
	}
}

func toRecord(id Identity) internalflows.IdentityRecord {
	return internalflows.IdentityRecord{
		ID:                id.ID,
		Email:             id.Email,
		FullName:          id.FullName,
		PasswordHash:      id.PasswordHash,
		ProfessionalTitle: id.ProfessionalTitle,
		Company:           id.Company,
	}
}

func fromRecord(rec internalflows.IdentityRecord) Identity {
	return Identity{
		ID:                rec.ID,
		Email:             rec.Email,
		FullName:          rec.FullName,
		PasswordHash:      rec.PasswordHash,
		ProfessionalTitle: rec.ProfessionalTitle,
		Company:           rec.Company,
	}
}
