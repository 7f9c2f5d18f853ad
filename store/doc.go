// Package store holds the bundled goIdentity.UserStore implementations.
//
// Every implementation enforces one identity per normalized email with an
// atomic primitive of its backend (a mutex, SETNX, or a unique index) and
// reports a lost race as goIdentity.ErrDuplicateIdentity.
//
//   - memory: process-local maps, for tests and single-node development.
//   - redisstore: go-redis with an email index key and a hash per identity.
//   - postgres: pgx/v5 with embedded golang-migrate migrations.
package store
