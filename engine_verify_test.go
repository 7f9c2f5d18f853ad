package goIdentity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/keys"
)

func TestVerifyTokenExpiryUsesEngineClock(t *testing.T) {
	now := testClock()
	clock := func() time.Time { return now }

	engine := newTestEngine(t, newMockStore(), func(c *Config) {
		c.Token.TTL = time.Hour
	}, func(b *Builder) {
		b.WithClock(func() time.Time { return clock() })
	})
	res := registerAlice(t, engine)

	now = testClock().Add(time.Hour)
	if _, err := engine.VerifyToken(context.Background(), res.Token); err != nil {
		t.Fatalf("expected token valid at exp, got %v", err)
	}

	now = testClock().Add(time.Hour + time.Second)
	if _, err := engine.VerifyToken(context.Background(), res.Token); !errors.Is(err, jwt.ErrExpired) {
		t.Fatalf("expected ErrExpired past exp, got %v", err)
	}
}

func TestPublicKeyExportVerifiesIssuedTokens(t *testing.T) {
	engine := newTestEngine(t, newMockStore(), nil)
	res := registerAlice(t, engine)

	exported := engine.PublicKey()
	if exported == "" || strings.ContainsAny(exported, "\n-") {
		t.Fatalf("unexpected export %q", exported)
	}

	pub, err := keys.DecodePublicKey(exported)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	claims, err := jwt.Verify(res.Token, pub, testClock())
	if err != nil {
		t.Fatalf("standalone verify failed: %v", err)
	}
	if claims.Email() != "alice@example.com" {
		t.Fatalf("unexpected subject %q", claims.Email())
	}

	if _, err := engine.Verifier().Verify(res.Token); err != nil {
		t.Fatalf("engine verifier failed: %v", err)
	}
	if !strings.HasPrefix(engine.PublicKeyPEM(), "-----BEGIN PUBLIC KEY-----") {
		t.Fatal("expected PEM public key")
	}
	if engine.KeyID() != testKeypair(t).KeyID() {
		t.Fatal("expected engine key id to match keypair")
	}
}

func TestTokensFromAnotherKeyAreRejected(t *testing.T) {
	other, err := keys.Generate(keys.DefaultBits)
	if err != nil {
		t.Fatalf("keys.Generate failed: %v", err)
	}
	foreign := newTestEngine(t, newMockStore(), nil, func(b *Builder) {
		b.WithKeypair(other)
	})
	res := registerAlice(t, foreign)

	engine := newTestEngine(t, newMockStore(), nil)
	if _, err := engine.VerifyToken(context.Background(), res.Token); !errors.Is(err, jwt.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if engine.MetricsSnapshot().Counters[MetricVerifyInvalidSignature] != 1 {
		t.Fatal("expected invalid-signature metric")
	}
}
