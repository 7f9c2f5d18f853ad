// Package postgres is a goIdentity.UserStore on PostgreSQL.
//
// Uniqueness is enforced by a unique index on lower(email); the store maps
// the resulting unique violation to goIdentity.ErrDuplicateIdentity.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	goIdentity "github.com/MrEthical07/goIdentity"
)

// Pool is the subset of *pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements goIdentity.UserStore.
type Store struct {
	pool Pool
}

// New returns a Store on pool. The schema must already be migrated.
func New(pool Pool) *Store {
	return &Store{pool: pool}
}

const (
	existsSQL = `SELECT EXISTS (SELECT 1 FROM identities WHERE lower(email) = lower($1))`

	findSQL = `SELECT id::text, email, full_name, password_hash, professional_title, company
		FROM identities WHERE lower(email) = lower($1)`

	insertSQL = `INSERT INTO identities (id, email, full_name, password_hash, professional_title, company)
		VALUES ($1, $2, $3, $4, $5, $6)`
)

func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, existsSQL, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by email: %w", err)
	}
	return exists, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (goIdentity.Identity, error) {
	var id goIdentity.Identity
	err := s.pool.QueryRow(ctx, findSQL, email).Scan(
		&id.ID,
		&id.Email,
		&id.FullName,
		&id.PasswordHash,
		&id.ProfessionalTitle,
		&id.Company,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return goIdentity.Identity{}, goIdentity.ErrIdentityNotFound
		}
		return goIdentity.Identity{}, fmt.Errorf("find by email: %w", err)
	}
	return id, nil
}

func (s *Store) Save(ctx context.Context, identity goIdentity.Identity) (goIdentity.Identity, error) {
	identity.ID = uuid.NewString()

	_, err := s.pool.Exec(ctx, insertSQL,
		identity.ID,
		identity.Email,
		identity.FullName,
		identity.PasswordHash,
		identity.ProfessionalTitle,
		identity.Company,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return goIdentity.Identity{}, goIdentity.ErrDuplicateIdentity
		}
		return goIdentity.Identity{}, fmt.Errorf("insert identity: %w", err)
	}
	return identity, nil
}
