package goIdentity

import "errors"

var (
	// ErrIdentityExists is returned by Register when the email is already registered.
	ErrIdentityExists = errors.New("identity already exists")
	// ErrInvalidCredentials is returned by Login for an unknown email, an empty
	// password or a wrong password. The three cases share this exact value.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRegistration is returned by Register for a missing email, password or full name.
	ErrInvalidRegistration = errors.New("invalid registration request")
	// ErrLoginRateLimited is returned by Login while the failed-login budget is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrEngineNotReady is returned by a zero or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrIdentityNotFound must be returned (or wrapped) by UserStore.FindByEmail
	// when no identity matches.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrDuplicateIdentity must be returned (or wrapped) by UserStore.Save when
	// the store's unique constraint rejects the email.
	ErrDuplicateIdentity = errors.New("duplicate identity")
)
