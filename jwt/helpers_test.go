package jwt

import (
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goIdentity/keys"
)

var (
	keyOnce sync.Once
	testKP  *keys.Keypair
	keyErr  error
)

func testKeypair(t testing.TB) *keys.Keypair {
	t.Helper()
	keyOnce.Do(func() {
		testKP, keyErr = keys.Generate(keys.DefaultBits)
	})
	if keyErr != nil {
		t.Fatalf("generate keypair: %v", keyErr)
	}
	return testKP
}

func testIssuer(t testing.TB) *Issuer {
	t.Helper()
	iss, err := NewIssuer(testKeypair(t), IssuerConfig{Issuer: "goidentity-test"})
	if err != nil {
		t.Fatalf("NewIssuer error: %v", err)
	}
	return iss
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

var alice = Subject{Email: "alice@example.com", FullName: "Alice Liddell", ID: "0b6f3c1e-2f4a-4b8e-9d7c-5a1e2b3c4d5e"}
