// Package goIdentity registers identities, authenticates logins and issues
// RS256 identity tokens that downstream services verify with the published
// public key alone.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goIdentity is the public surface. It exposes [Engine], [Builder], [Config],
// the [UserStore] contract and value types. Flow orchestration, rate limiting
// and audit dispatch live under internal/ and are never exported. Hashing,
// key management and token signing live in the password, keys and jwt
// packages, which do not import goIdentity.
//
// # What this package must NOT do
//
//   - Format transport responses; internal/httpapi maps errors to HTTP.
//   - Decrypt request fields; callers pass plaintext.
//   - Retry store calls or mutate the store during login.
//   - Import any sub-package that re-imports goIdentity (no import cycles).
package goIdentity
