// Package redisstore is a goIdentity.UserStore on Redis.
//
// Layout, with the default prefix "gi":
//
//	gi:email:<email>  -> identity id   (SETNX; owns the email)
//	gi:user:<id>      -> hash of identity fields
//
// The email key is claimed first, so two concurrent Saves for one email
// cannot both succeed. The claim carries ClaimTTL until the hash write
// commits, and the same MULTI/EXEC that writes the hash makes it permanent.
// A claim left behind by a crashed writer therefore expires on its own; a
// Save whose hash write fails releases the claim immediately.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	goIdentity "github.com/MrEthical07/goIdentity"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "gi"

// ClaimTTL bounds how long an email claim may exist without its identity hash.
const ClaimTTL = 30 * time.Second

// ErrUnavailable wraps Redis transport failures.
var ErrUnavailable = errors.New("identity store redis unavailable")

const (
	fieldID                = "id"
	fieldEmail             = "email"
	fieldFullName          = "full_name"
	fieldPasswordHash      = "password_hash"
	fieldProfessionalTitle = "professional_title"
	fieldCompany           = "company"
)

// Store implements goIdentity.UserStore.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New returns a Store using client. An empty prefix selects DefaultPrefix.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":email:" + email
}

func (s *Store) userKey(id string) string {
	return s.prefix + ":user:" + id
}

func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.emailKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n == 1, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (goIdentity.Identity, error) {
	id, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return goIdentity.Identity{}, goIdentity.ErrIdentityNotFound
		}
		return goIdentity.Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.FindByID(ctx, id)
}

// FindByID loads the identity hash for id.
func (s *Store) FindByID(ctx context.Context, id string) (goIdentity.Identity, error) {
	fields, err := s.redis.HGetAll(ctx, s.userKey(id)).Result()
	if err != nil {
		return goIdentity.Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// An email claim whose hash was never written reads as absent.
	if len(fields) == 0 || fields[fieldID] == "" {
		return goIdentity.Identity{}, goIdentity.ErrIdentityNotFound
	}

	return goIdentity.Identity{
		ID:                fields[fieldID],
		Email:             fields[fieldEmail],
		FullName:          fields[fieldFullName],
		PasswordHash:      fields[fieldPasswordHash],
		ProfessionalTitle: fields[fieldProfessionalTitle],
		Company:           fields[fieldCompany],
	}, nil
}

// Save claims the email with a short-lived SETNX and then, in one MULTI/EXEC,
// writes the identity hash and persists the claim.
func (s *Store) Save(ctx context.Context, identity goIdentity.Identity) (goIdentity.Identity, error) {
	identity.ID = uuid.NewString()
	emailKey := s.emailKey(identity.Email)

	claimed, err := s.claimEmail(ctx, emailKey, identity.ID)
	if err != nil {
		return goIdentity.Identity{}, err
	}
	if !claimed {
		return goIdentity.Identity{}, goIdentity.ErrDuplicateIdentity
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.userKey(identity.ID), map[string]any{
			fieldID:                identity.ID,
			fieldEmail:             identity.Email,
			fieldFullName:          identity.FullName,
			fieldPasswordHash:      identity.PasswordHash,
			fieldProfessionalTitle: identity.ProfessionalTitle,
			fieldCompany:           identity.Company,
		})
		pipe.Persist(ctx, emailKey)
		return nil
	})
	if err != nil {
		_ = s.redis.Del(context.WithoutCancel(ctx), emailKey).Err()
		return goIdentity.Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return identity, nil
}

func (s *Store) claimEmail(ctx context.Context, emailKey, id string) (bool, error) {
	claimed, err := s.redis.SetNX(ctx, emailKey, id, ClaimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return claimed, nil
}
