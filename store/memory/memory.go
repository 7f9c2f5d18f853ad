// Package memory is an in-process goIdentity.UserStore.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	goIdentity "github.com/MrEthical07/goIdentity"
)

// Store keeps identities in maps guarded by one mutex.
type Store struct {
	mu      sync.RWMutex
	byEmail map[string]goIdentity.Identity
	byID    map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byEmail: make(map[string]goIdentity.Identity),
		byID:    make(map[string]string),
	}
}

func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (goIdentity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return goIdentity.Identity{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return goIdentity.Identity{}, goIdentity.ErrIdentityNotFound
	}
	return id, nil
}

// FindByID returns the identity with the given ID.
func (s *Store) FindByID(ctx context.Context, id string) (goIdentity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return goIdentity.Identity{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	email, ok := s.byID[id]
	if !ok {
		return goIdentity.Identity{}, goIdentity.ErrIdentityNotFound
	}
	return s.byEmail[email], nil
}

// Save assigns a fresh ID and inserts identity. The existence check and the
// insert happen under one lock.
func (s *Store) Save(ctx context.Context, identity goIdentity.Identity) (goIdentity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return goIdentity.Identity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[identity.Email]; ok {
		return goIdentity.Identity{}, goIdentity.ErrDuplicateIdentity
	}
	identity.ID = uuid.NewString()
	s.byEmail[identity.Email] = identity
	s.byID[identity.ID] = identity.Email
	return identity, nil
}

// Len returns the number of stored identities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail)
}
