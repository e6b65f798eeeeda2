package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every TEAMVAULT_ env var that Load() reads.
var allConfigKeys = []string{
	"TEAMVAULT_LISTEN_ADDR",
	"TEAMVAULT_DB_PATH",
	"TEAMVAULT_ENCRYPTION_KEY",
}

// isolateConfigEnv saves and unsets all TEAMVAULT_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("TEAMVAULT_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("TEAMVAULT_DB_PATH", "/tmp/test.db")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "teamvault.db", cfg.DBPath)
	assert.Nil(t, cfg.EncryptionKey)
}

func TestLoad_EncryptionKey_Empty(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("TEAMVAULT_ENCRYPTION_KEY", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Nil(t, cfg.EncryptionKey)
}

func TestLoad_EncryptionKey_Valid(t *testing.T) {
	isolateConfigEnv(t)
	// 64 hex chars = 32 bytes
	t.Setenv("TEAMVAULT_ENCRYPTION_KEY", "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Len(t, cfg.EncryptionKey, 32)
}

func TestLoad_EncryptionKey_TooShort(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("TEAMVAULT_ENCRYPTION_KEY", "deadbeef")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEAMVAULT_ENCRYPTION_KEY")
}

func TestLoad_EncryptionKey_NotHex(t *testing.T) {
	isolateConfigEnv(t)
	// 64 chars but not valid hex
	t.Setenv("TEAMVAULT_ENCRYPTION_KEY", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEAMVAULT_ENCRYPTION_KEY")
}
