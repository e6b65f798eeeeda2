package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ericfisherdev/teamvault/internal/domain/port/driven"
)

// masterKeyName is the well-known keystore row holding the vault master key.
const masterKeyName = "master"

// masterKeyLen is the AES-256 key length in bytes.
const masterKeyLen = 32

// Compile-time interface satisfaction check.
var _ driven.KeyStore = (*KeyRepo)(nil)

// KeyRepo is the SQLite implementation of the KeyStore port interface.
// The key is stored hex-encoded in a single keystore row.
type KeyRepo struct {
	db *DB
}

// NewKeyRepo creates a new KeyRepo backed by the given DB.
func NewKeyRepo(db *DB) *KeyRepo {
	return &KeyRepo{db: db}
}

// GetOrCreateKey returns the 32-byte master key, generating and persisting it
// on first use. Creation is a single conditional insert: when two callers race
// on an empty keystore, exactly one row wins and both re-read that row, so all
// callers converge on identical key material.
func (r *KeyRepo) GetOrCreateKey(ctx context.Context) ([]byte, error) {
	key, err := r.readKey(ctx)
	if err != nil {
		return nil, err
	}
	if key != nil {
		return key, nil
	}

	fresh := make([]byte, masterKeyLen)
	if _, err := rand.Read(fresh); err != nil {
		return nil, fmt.Errorf("generate master key: %w: %w", driven.ErrKeyUnavailable, err)
	}

	const query = `INSERT INTO keystore (name, key_hex) VALUES (?, ?)
	               ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.Writer.ExecContext(ctx, query, masterKeyName, hex.EncodeToString(fresh)); err != nil {
		return nil, fmt.Errorf("persist master key: %w: %w", driven.ErrKeyUnavailable, err)
	}

	// Re-read rather than returning the local value: a concurrent creator may
	// have won the conditional insert.
	key, err = r.readKey(ctx)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, fmt.Errorf("master key vanished after insert: %w", driven.ErrKeyUnavailable)
	}

	return key, nil
}

// readKey returns the stored key bytes, or nil, nil when no row exists yet.
func (r *KeyRepo) readKey(ctx context.Context) ([]byte, error) {
	const query = `SELECT key_hex FROM keystore WHERE name = ?`

	var keyHex string
	err := r.db.Reader.QueryRowContext(ctx, query, masterKeyName).Scan(&keyHex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read master key: %w: %w", driven.ErrKeyUnavailable, err)
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w: %w", driven.ErrKeyUnavailable, err)
	}
	if len(key) != masterKeyLen {
		return nil, fmt.Errorf("master key has %d bytes, want %d: %w", len(key), masterKeyLen, driven.ErrKeyUnavailable)
	}

	return key, nil
}
