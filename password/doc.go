// Package password implements one-way credential hashing and verification.
//
// # Output format
//
// New hashes are argon2id PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// bcrypt hashes ($2a$, $2b$, $2y$) are accepted by [Multi.Verify] so accounts
// imported from the previous service keep working.
//
// # Failure semantics
//
// Hash fails only for empty input or an exhausted entropy source. Verify
// never returns an error: a mismatch and a malformed stored hash are both
// reported as false, so callers cannot tell which part failed.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other goIdentity package.
//   - Log plaintext passwords or hash parameters.
package password
