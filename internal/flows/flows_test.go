package flows

import (
	"context"
	"errors"
	"testing"
	"time"
)

var (
	errNotReady     = errors.New("not ready")
	errInvalidReg   = errors.New("invalid registration")
	errExists       = errors.New("exists")
	errDuplicate    = errors.New("duplicate")
	errInvalidCreds = errors.New("invalid credentials")
	errRateLimited  = errors.New("rate limited")
	errNotFound     = errors.New("not found")
)

const (
	mRegisterSuccess = iota
	mRegisterDuplicate
	mRegisterInvalid
	mTokenIssued
	mLoginSuccess
	mLoginFailure
	mLoginUserNotFound
	mLoginPasswordMismatch
	mLoginRateLimited
)

type recorder struct {
	metrics map[int]int
	events  []recordedEvent
}

type recordedEvent struct {
	name    string
	success bool
	userID  string
	meta    map[string]string
}

func newRecorder() *recorder {
	return &recorder{metrics: map[int]int{}}
}

func (r *recorder) inc(id int) { r.metrics[id]++ }

func (r *recorder) audit(_ context.Context, event string, success bool, userID string, _ error, md func() map[string]string) {
	var meta map[string]string
	if md != nil {
		meta = md()
	}
	r.events = append(r.events, recordedEvent{name: event, success: success, userID: userID, meta: meta})
}

func (r *recorder) last() recordedEvent {
	if len(r.events) == 0 {
		return recordedEvent{}
	}
	return r.events[len(r.events)-1]
}

type fakeStore struct {
	byEmail   map[string]IdentityRecord
	existsErr error
	findErr   error
	saveErr   error
	noID      bool
	exists    int
	saves     int
	finds     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byEmail: map[string]IdentityRecord{}}
}

func (s *fakeStore) existsByEmail(_ context.Context, email string) (bool, error) {
	s.exists++
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *fakeStore) save(_ context.Context, rec IdentityRecord) (IdentityRecord, error) {
	s.saves++
	if s.saveErr != nil {
		return IdentityRecord{}, s.saveErr
	}
	if !s.noID {
		rec.ID = "id-" + rec.Email
	}
	s.byEmail[rec.Email] = rec
	return rec, nil
}

func (s *fakeStore) find(_ context.Context, email string) (IdentityRecord, error) {
	s.finds++
	if s.findErr != nil {
		return IdentityRecord{}, s.findErr
	}
	rec, ok := s.byEmail[email]
	if !ok {
		return IdentityRecord{}, errNotFound
	}
	return rec, nil
}

func fakeHash(p string) (string, error) { return "hashed:" + p, nil }

func fakeVerify(p, h string) bool { return h == "hashed:"+p }

func fakeIssue(rec IdentityRecord) (IssuedToken, error) {
	return IssuedToken{Token: "token-for-" + rec.ID, ExpiresAt: time.Unix(1700000000, 0)}, nil
}

func registerDeps(store *fakeStore, rec *recorder) RegisterDeps {
	return RegisterDeps{
		ExistsByEmail: store.existsByEmail,
		HashPassword:  fakeHash,
		SaveIdentity:  store.save,
		IssueToken:    fakeIssue,
		MetricInc:     rec.inc,
		EmitAudit:     rec.audit,
		Metrics: RegisterMetrics{
			RegisterSuccess:   mRegisterSuccess,
			RegisterDuplicate: mRegisterDuplicate,
			RegisterInvalid:   mRegisterInvalid,
			TokenIssued:       mTokenIssued,
		},
		Events: RegisterEvents{
			RegisterSuccess:   "register_success",
			RegisterFailure:   "register_failure",
			RegisterDuplicate: "register_duplicate",
		},
		Errors: RegisterErrors{
			EngineNotReady:      errNotReady,
			InvalidRegistration: errInvalidReg,
			IdentityExists:      errExists,
			DuplicateIdentity:   errDuplicate,
		},
	}
}

func loginDeps(store *fakeStore, rec *recorder) LoginDeps {
	return LoginDeps{
		FindByEmail:    store.find,
		VerifyPassword: fakeVerify,
		IssueToken:     fakeIssue,
		MetricInc:      rec.inc,
		EmitAudit:      rec.audit,
		Metrics: LoginMetrics{
			LoginSuccess:          mLoginSuccess,
			LoginFailure:          mLoginFailure,
			LoginUserNotFound:     mLoginUserNotFound,
			LoginPasswordMismatch: mLoginPasswordMismatch,
			LoginRateLimited:      mLoginRateLimited,
			TokenIssued:           mTokenIssued,
		},
		Events: LoginEvents{
			LoginSuccess:     "login_success",
			LoginFailure:     "login_failure",
			LoginRateLimited: "login_rate_limited",
		},
		Errors: LoginErrors{
			EngineNotReady:     errNotReady,
			InvalidCredentials: errInvalidCreds,
			LoginRateLimited:   errRateLimited,
			IdentityNotFound:   errNotFound,
		},
	}
}
