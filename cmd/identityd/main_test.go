package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/internal/config"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/keys"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile, envFile = "", ""

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommandHasExpectedSubcommands(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"serve", "migrate", "keygen", "verify"} {
		assert.Contains(t, out, sub, "help missing %q command", sub)
	}
}

func TestKeygenThenVerify(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "signing.pem")

	out, err := execute(t, "keygen", "--out", keyPath)
	require.NoError(t, err)

	var exported string
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, "public key: "); ok {
			exported = v
		}
	}
	require.NotEmpty(t, exported, out)

	kp, generated, err := keys.LoadOrGenerate(keyPath, keys.DefaultBits, false)
	require.NoError(t, err)
	assert.False(t, generated)
	assert.Equal(t, exported, kp.PublicKeyExport())
	assert.Contains(t, out, "kid: "+kp.KeyID())

	iss, err := jwt.NewIssuer(kp, jwt.IssuerConfig{})
	require.NoError(t, err)
	token, err := iss.Issue(jwt.Subject{Email: "alice@example.com", FullName: "Alice", ID: "user-1"}, time.Now(), time.Hour)
	require.NoError(t, err)

	pubFile := filepath.Join(t.TempDir(), "public.txt")
	require.NoError(t, os.WriteFile(pubFile, []byte(exported+"\n"), 0o600))

	out, err = execute(t, "verify", "--public-key", "@"+pubFile, token)
	require.NoError(t, err)
	assert.Contains(t, out, `"sub": "alice@example.com"`)
	assert.Contains(t, out, `"fullName": "Alice"`)

	expired, err := iss.Issue(jwt.Subject{Email: "alice@example.com"}, time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	_, err = execute(t, "verify", "--public-key", exported, expired)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrExpired)
	assert.Contains(t, err.Error(), "(expired)")

	_, err = execute(t, "keygen", "--out", keyPath)
	assert.Error(t, err, "keygen must not overwrite an existing key")
}

func TestKeygenRejectsWeakBits(t *testing.T) {
	_, err := execute(t, "keygen", "--out", filepath.Join(t.TempDir(), "k.pem"), "--bits", "1024")
	assert.ErrorIs(t, err, keys.ErrWeakKey)
}

func TestVerifyRequiresPublicKey(t *testing.T) {
	_, err := execute(t, "verify", "a.b.c")
	assert.Error(t, err)
}

func TestMigrateRequiresDSN(t *testing.T) {
	_, err := execute(t, "--env-file", "", "migrate")
	assert.Error(t, err)

	_, err = execute(t, "migrate", "sideways")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "WARN", Format: "json"}, &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"service":"identityd"`)

	logger = newLogger(config.LogConfig{Level: "nonsense"}, &buf)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestOpenDepsMemory(t *testing.T) {
	cfg := config.Default()
	deps, err := openDeps(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer deps.Close()

	assert.Nil(t, deps.redis)
	assert.Empty(t, deps.health)

	_, err = deps.store.Save(context.Background(), goIdentity.Identity{Email: "a@example.com"})
	require.NoError(t, err)
}

func TestOpenDepsRedisStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.StoreRedis

	deps, err := openDeps(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer deps.Close()

	assert.NotNil(t, deps.redis)
	assert.Contains(t, deps.health, "redis")
}
