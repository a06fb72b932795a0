// AngelaMos | 2026
// keys_test.go

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/auth"
	"github.com/coachforge/platform/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestKeysGenerate(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "nested", "private.pem")
	pub := filepath.Join(dir, "nested", "public.pem")

	out, err := execute(t, "keys", "generate", "--private", priv, "--public", pub)
	require.NoError(t, err)
	assert.Contains(t, out, priv)

	cfg := config.JWTConfig{
		PrivateKeyPath: priv,
		PublicKeyPath:  pub,
		Issuer:         "test",
		Audience:       "test",
	}
	_, err = auth.NewJWTManager(cfg)
	require.NoError(t, err)
	_, err = auth.NewVerifier(cfg)
	require.NoError(t, err)
}

func TestKeysGenerateRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")

	_, err := execute(t, "keys", "generate", "--private", priv, "--public", pub)
	require.NoError(t, err)

	_, err = execute(t, "keys", "generate", "--private", priv, "--public", pub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--overwrite")

	_, err = execute(t, "keys", "generate", "--private", priv, "--public", pub, "--overwrite")
	assert.NoError(t, err)
}

func TestMigrateForceRejectsBadVersion(t *testing.T) {
	_, err := execute(t, "migrate", "force", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid version")
}

func TestSeedRejectsMissingCatalog(t *testing.T) {
	_, err := execute(t, "seed", "achievements", "--file", filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}
