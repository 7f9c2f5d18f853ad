// Package jwt issues and verifies RS256 identity tokens.
//
// Tokens carry the claims {sub, fullName, id, iat, exp, jti} plus "iss" when
// an issuer name is configured. [Issuer] signs with a [keys.Keypair];
// [Verify] needs only the public key, so any service holding the exported key
// can check tokens without contacting the issuer.
//
// Verification failures are reported as one of four sentinels
// ([ErrMalformedToken], [ErrInvalidSignature], [ErrExpired], [ErrNotYetValid]).
// Boundaries should collapse them into a single unauthorized response and use
// [Reason] only for logs and metrics.
package jwt
