// Package middleware protects HTTP handlers with identity tokens.
//
// Both adapters verify the bearer token through a [TokenVerifier]: the
// Engine itself inside the issuing service, or [PublicKey] around a
// *jwt.Verifier built from the exported key in downstream services.
//
//   - [Guard] wraps a net/http handler.
//   - [RequireBearer] is the gin equivalent.
//
// Verified claims are stored in the request context ([ClaimsFromContext]) or
// the gin context ([ClaimsFromGin]).
//
// # What this package must NOT do
//
//   - Issue tokens or touch the user store.
//   - Tell the client why a token was rejected.
package middleware
