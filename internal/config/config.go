// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr    string
	DBPath        string
	EncryptionKey []byte // optional 32-byte master key override; nil when unset
}

// Load reads configuration from environment variables and returns a validated
// Config. All variables are optional: TEAMVAULT_LISTEN_ADDR (127.0.0.1:8080),
// TEAMVAULT_DB_PATH (teamvault.db), and TEAMVAULT_ENCRYPTION_KEY, a
// hex-encoded 32-byte master key that pins the key instead of the database
// keystore row.
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("TEAMVAULT_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "teamvault.db"
	if v, ok := os.LookupEnv("TEAMVAULT_DB_PATH"); ok {
		dbPath = v
	}

	var key []byte
	if v, ok := os.LookupEnv("TEAMVAULT_ENCRYPTION_KEY"); ok && v != "" {
		decoded, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("TEAMVAULT_ENCRYPTION_KEY is not valid hex: %w", err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("TEAMVAULT_ENCRYPTION_KEY decodes to %d bytes, want 32", len(decoded))
		}
		key = decoded
	}

	return &Config{
		ListenAddr:    listenAddr,
		DBPath:        dbPath,
		EncryptionKey: key,
	}, nil
}
