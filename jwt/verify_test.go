package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goIdentity/keys"
)

func TestVerifyExpiry(t *testing.T) {
	iss := testIssuer(t)
	now := fixedNow()
	pub := testKeypair(t).PublicKey()

	token, err := iss.Issue(alice, now, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	for _, at := range []time.Time{now, now.Add(time.Hour - time.Second), now.Add(time.Hour)} {
		if _, err := Verify(token, pub, at); err != nil {
			t.Fatalf("at %v: expected token to be valid, got %v", at, err)
		}
	}
	for _, at := range []time.Time{now.Add(time.Hour + time.Nanosecond), now.Add(time.Hour + time.Second), now.Add(48 * time.Hour)} {
		if _, err := Verify(token, pub, at); !errors.Is(err, ErrExpired) {
			t.Fatalf("at %v: expected ErrExpired, got %v", at, err)
		}
	}
}

func TestVerifyNotYetValid(t *testing.T) {
	iss := testIssuer(t)
	now := fixedNow()

	token, err := iss.Issue(alice, now, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = Verify(token, testKeypair(t).PublicKey(), now.Add(-time.Second))
	if !errors.Is(err, ErrNotYetValid) {
		t.Fatalf("expected ErrNotYetValid, got %v", err)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	iss := testIssuer(t)
	now := fixedNow()

	token, err := iss.Issue(alice, now, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	dot := strings.LastIndex(token, ".")
	sig := []byte(token[dot+1:])
	mid := len(sig) / 2
	if sig[mid] == 'A' {
		sig[mid] = 'B'
	} else {
		sig[mid] = 'A'
	}
	tampered := token[:dot+1] + string(sig)

	_, err = Verify(tampered, testKeypair(t).PublicKey(), now)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyTamperedSignatureTail(t *testing.T) {
	iss := testIssuer(t)
	now := fixedNow()
	pub := testKeypair(t).PublicKey()

	token, err := iss.Issue(alice, now, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	last := token[len(token)-1]
	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		if c == last {
			continue
		}
		tampered := token[:len(token)-1] + string(c)
		if _, err := Verify(tampered, pub, now); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("last char %q -> %q: expected ErrInvalidSignature, got %v", last, c, err)
		}
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	iss := testIssuer(t)
	now := fixedNow()

	token, err := iss.Issue(alice, now, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	forged, err := iss.Issue(Subject{Email: "mallory@example.com", FullName: "Mallory"}, now, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forged, ".")
	spliced := parts[0] + "." + forgedParts[1] + "." + parts[2]

	if _, err := Verify(spliced, testKeypair(t).PublicKey(), now); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	other, err := keys.Generate(keys.DefaultBits)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	token, err := testIssuer(t).Issue(alice, fixedNow(), time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := Verify(token, other.PublicKey(), fixedNow()); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if _, err := Verify(token, nil, fixedNow()); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for nil key, got %v", err)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	now := fixedNow()
	claims := Claims{
		FullName: alice.FullName,
		ID:       alice.ID,
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   alice.Email,
			IssuedAt:  gjwt.NewNumericDate(now),
			ExpiresAt: gjwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	hs, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("shared-secret-shared-secret-0000"))
	if err != nil {
		t.Fatalf("sign hs256: %v", err)
	}
	none, err := gjwt.NewWithClaims(gjwt.SigningMethodNone, claims).SignedString(gjwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	ps, err := gjwt.NewWithClaims(gjwt.SigningMethodPS256, claims).SignedString(testKeypair(t).PrivateKey())
	if err != nil {
		t.Fatalf("sign ps256: %v", err)
	}

	for name, token := range map[string]string{"HS256": hs, "none": none, "PS256": ps} {
		if _, err := Verify(token, testKeypair(t).PublicKey(), now); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("%s: expected ErrInvalidSignature, got %v", name, err)
		}
	}
}

func TestVerifyMalformed(t *testing.T) {
	pub := testKeypair(t).PublicKey()
	for _, token := range []string{
		"",
		"not-a-token",
		"a.b",
		"a.b.c",
		"eyJhbGciOiJSUzI1NiJ9.bm90LWpzb24.c2ln",
	} {
		if _, err := Verify(token, pub, fixedNow()); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("%q: expected ErrMalformedToken, got %v", token, err)
		}
	}
}

func TestVerifyMissingRequiredClaims(t *testing.T) {
	now := fixedNow()
	priv := testKeypair(t).PrivateKey()

	cases := map[string]gjwt.MapClaims{
		"missing exp": {"sub": alice.Email, "iat": now.Unix()},
		"missing iat": {"sub": alice.Email, "exp": now.Add(time.Hour).Unix()},
		"missing sub": {"iat": now.Unix(), "exp": now.Add(time.Hour).Unix()},
	}
	for name, claims := range cases {
		token, err := gjwt.NewWithClaims(gjwt.SigningMethodRS256, claims).SignedString(priv)
		if err != nil {
			t.Fatalf("%s: sign: %v", name, err)
		}
		if _, err := Verify(token, testKeypair(t).PublicKey(), now); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("%s: expected ErrMalformedToken, got %v", name, err)
		}
	}
}

func TestExportedKeyVerifiesIssuedToken(t *testing.T) {
	iss := testIssuer(t)
	now := fixedNow()

	token, err := iss.Issue(alice, now, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	pub, err := keys.DecodePublicKey(iss.PublicKeyExport())
	if err != nil {
		t.Fatalf("DecodePublicKey error: %v", err)
	}

	claims, err := Verify(token, pub, now)
	if err != nil {
		t.Fatalf("Verify with decoded key error: %v", err)
	}
	if claims.Email() != alice.Email || claims.FullName != alice.FullName {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifierUsesClock(t *testing.T) {
	iss := testIssuer(t)
	now := fixedNow()

	token, err := iss.Issue(alice, now, time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	current := now
	v := NewVerifier(testKeypair(t).PublicKey(), WithClock(func() time.Time { return current }))
	if _, err := v.Verify(token); err != nil {
		t.Fatalf("expected valid token: %v", err)
	}

	current = now.Add(2 * time.Minute)
	if _, err := v.Verify(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired after advancing clock, got %v", err)
	}
}

func TestReasonAndIsVerificationError(t *testing.T) {
	cases := map[error]string{
		ErrMalformedToken:   "malformed",
		ErrInvalidSignature: "invalid_signature",
		ErrExpired:          "expired",
		ErrNotYetValid:      "not_yet_valid",
	}
	for err, want := range cases {
		if got := Reason(err); got != want {
			t.Fatalf("Reason(%v) = %q, want %q", err, got, want)
		}
		if !IsVerificationError(err) {
			t.Fatalf("expected %v to be a verification error", err)
		}
	}

	other := errors.New("boom")
	if IsVerificationError(other) || Reason(other) != "unknown" {
		t.Fatal("unexpected classification for unrelated error")
	}
}
