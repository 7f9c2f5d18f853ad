package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/goIdentity/jwt"
)

// TokenVerifier checks a raw token. *goIdentity.Engine implements it; a
// bare *jwt.Verifier can be adapted with PublicKey.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*jwt.Claims, error)
}

type publicKeyVerifier struct {
	v *jwt.Verifier
}

func (p publicKeyVerifier) VerifyToken(_ context.Context, token string) (*jwt.Claims, error) {
	return p.v.Verify(token)
}

// PublicKey adapts a verifier built from an exported public key.
func PublicKey(v *jwt.Verifier) TokenVerifier {
	if v == nil {
		return nil
	}
	return publicKeyVerifier{v: v}
}

type claimsContextKey struct{}

// ClaimsFromContext returns the claims stored by Guard.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*jwt.Claims)
	return claims, ok
}

// Guard rejects requests without a valid bearer token with 401.
func Guard(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
