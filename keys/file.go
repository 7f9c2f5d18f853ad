package keys

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang-jwt/jwt/v5"
)

// LoadOrGenerate returns the keypair stored at path.
//
// An empty path yields an ephemeral keypair; tokens signed with it stop
// verifying once the process exits. When the file does not exist and
// generateIfMissing is set, a new key is generated and written as a PKCS#8
// PEM file with mode 0600. The returned bool reports whether a key was
// generated.
func LoadOrGenerate(path string, bits int, generateIfMissing bool) (*Keypair, bool, error) {
	if path == "" {
		kp, err := Generate(bits)
		return kp, true, err
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		kp, err := ParsePrivateKeyPEM(raw)
		return kp, false, err
	case errors.Is(err, fs.ErrNotExist) && generateIfMissing:
		kp, err := Generate(bits)
		if err != nil {
			return nil, false, err
		}
		if err := WritePrivateKeyPEM(path, kp); err != nil {
			return nil, false, err
		}
		return kp, true, nil
	default:
		return nil, false, fmt.Errorf("keys: read %s: %w", path, err)
	}
}

// ParsePrivateKeyPEM accepts PKCS#1 or PKCS#8 RSA private keys.
func ParsePrivateKeyPEM(raw []byte) (*Keypair, error) {
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("keys: parse private key: %w", err)
	}
	return FromPrivateKey(priv)
}

// WritePrivateKeyPEM writes kp's private key to path. It refuses to replace
// an existing file.
func WritePrivateKeyPEM(path string, kp *Keypair) error {
	der, err := x509.MarshalPKCS8PrivateKey(kp.private)
	if err != nil {
		return fmt.Errorf("keys: marshal private key: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("keys: create key directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("keys: create %s: %w", path, err)
	}
	if err := pem.Encode(f, &pem.Block{Type: "PRIVATE KEY", Bytes: der}); err != nil {
		_ = f.Close()
		return fmt.Errorf("keys: write %s: %w", path, err)
	}
	return f.Close()
}
