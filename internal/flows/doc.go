// Package flows contains the orchestration for the Engine's register and
// login operations.
//
// Each flow function (RunRegister, RunLogin) accepts a typed dependency struct
// of plain functions and returns results without side effects beyond those
// dependencies. Tests drive the flows with stub functions; the Engine stays a
// thin adapter that wires stores, hashers, issuers, limiters, metrics and
// audit into the structs.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goIdentity (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency functions.
//   - Retry failed store calls.
package flows
