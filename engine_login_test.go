package goIdentity

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestLoginSuccess(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store, nil)
	reg := registerAlice(t, engine)

	res, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.TokenType != TokenTypeBearer {
		t.Fatalf("expected Bearer, got %q", res.TokenType)
	}
	if res.Identity.ID != reg.Identity.ID || res.Identity.PasswordHash != "" {
		t.Fatalf("unexpected identity: %+v", res.Identity)
	}

	claims, err := engine.VerifyToken(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Email() != "alice@example.com" {
		t.Fatalf("unexpected subject %q", claims.Email())
	}
}

func TestLoginNormalizesEmail(t *testing.T) {
	engine := newTestEngine(t, newMockStore(), nil)
	registerAlice(t, engine)

	if _, err := engine.Login(context.Background(), " ALICE@example.com", "correct-password-123"); err != nil {
		t.Fatalf("expected case-insensitive login, got %v", err)
	}
}

func TestLoginFailuresShareOneError(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store, nil)
	registerAlice(t, engine)

	_, errUnknown := engine.Login(context.Background(), "nobody@example.com", "correct-password-123")
	_, errWrong := engine.Login(context.Background(), "alice@example.com", "wrong-password")
	_, errEmpty := engine.Login(context.Background(), "alice@example.com", "")

	for name, err := range map[string]error{"unknown": errUnknown, "wrong": errWrong, "empty": errEmpty} {
		if err != ErrInvalidCredentials {
			t.Fatalf("%s: expected exactly ErrInvalidCredentials, got %v", name, err)
		}
	}
	if errUnknown.Error() != "invalid email or password" {
		t.Fatalf("unexpected message %q", errUnknown.Error())
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricLoginFailure] != 3 {
		t.Fatalf("expected 3 failures, got %d", snap.Counters[MetricLoginFailure])
	}
	if snap.Counters[MetricLoginUserNotFound] != 1 || snap.Counters[MetricLoginPasswordMismatch] != 1 {
		t.Fatalf("unexpected reason counters: %+v", snap.Counters)
	}
}

func TestLoginNeverWritesStore(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store, nil)
	registerAlice(t, engine)
	saves := store.saveCalls

	_, _ = engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	_, _ = engine.Login(context.Background(), "alice@example.com", "wrong")

	if store.saveCalls != saves {
		t.Fatalf("login must not write, got %d extra saves", store.saveCalls-saves)
	}
}

func TestLoginStoreFailureIsNotInvalidCredentials(t *testing.T) {
	boom := errors.New("db down")
	store := newMockStore()
	engine := newTestEngine(t, store, nil)
	registerAlice(t, engine)

	store.findErr = boom
	_, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("store failure must not be reported as invalid credentials")
	}
}

func TestLoginAcceptsLegacyBcryptHash(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store, nil)

	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	if _, err := store.Save(context.Background(), Identity{
		Email:        "legacy@example.com",
		FullName:     "Legacy User",
		PasswordHash: string(legacy),
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := engine.Login(context.Background(), "legacy@example.com", "legacy-password"); err != nil {
		t.Fatalf("expected legacy hash to authenticate, got %v", err)
	}
	if _, err := engine.Login(context.Background(), "legacy@example.com", "nope"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRateLimiter(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := newMockStore()
	engine := newTestEngine(t, store, func(c *Config) {
		c.Security.EnableLoginThrottle = true
		c.Security.MaxLoginAttempts = 3
		c.Security.LoginCooldownDuration = time.Minute
	}, func(b *Builder) {
		b.WithRedis(rdb)
	})
	registerAlice(t, engine)

	for i := 0; i < 2; i++ {
		if _, err := engine.Login(context.Background(), "alice@example.com", "wrong"); err != ErrInvalidCredentials {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	// The third failure reaches the budget; the next attempt is refused
	// before the password is checked.
	_, _ = engine.Login(context.Background(), "alice@example.com", "wrong")

	finds := store.findCalls
	_, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}
	if store.findCalls != finds {
		t.Fatal("rate-limited login must not reach the store")
	}

	mr.FastForward(time.Minute + time.Second)
	if _, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123"); err != nil {
		t.Fatalf("expected login after cooldown, got %v", err)
	}
	if engine.MetricsSnapshot().Counters[MetricLoginRateLimited] == 0 {
		t.Fatal("expected rate-limited metric")
	}
}

func TestLoginSuccessResetsLimiter(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, newMockStore(), func(c *Config) {
		c.Security.EnableLoginThrottle = true
		c.Security.MaxLoginAttempts = 3
		c.Security.LoginCooldownDuration = time.Minute
	}, func(b *Builder) {
		b.WithRedis(rdb)
	})
	registerAlice(t, engine)

	for i := 0; i < 2; i++ {
		_, _ = engine.Login(context.Background(), "alice@example.com", "wrong")
	}
	if _, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := engine.Login(context.Background(), "alice@example.com", "wrong"); err != ErrInvalidCredentials {
			t.Fatalf("expected counter reset after success, got %v", err)
		}
	}
}

func TestLoginLimiterUnavailableFailsClosed(t *testing.T) {
	mr, rdb := newTestRedis(t)
	engine := newTestEngine(t, newMockStore(), func(c *Config) {
		c.Security.EnableLoginThrottle = true
	}, func(b *Builder) {
		b.WithRedis(rdb)
	})
	registerAlice(t, engine)

	mr.Close()
	_, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err == nil {
		t.Fatal("expected login to fail while the limiter backend is down")
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("backend failure must not be reported as invalid credentials: %v", err)
	}
}
