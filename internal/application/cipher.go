package application

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"sync"

	"github.com/ericfisherdev/teamvault/internal/domain/port/driven"
)

// ivSize is the CBC initialization vector length, one AES block.
const ivSize = aes.BlockSize

// Cipher encrypts and decrypts credential secrets with AES-256-CBC under the
// master key from the KeyStore. Each encryption draws a fresh random IV and
// produces base64(IV || ciphertext), so identical plaintexts yield different
// blobs.
//
// The scheme carries no integrity tag. A tampered blob is usually rejected by
// the padding check but can in principle decrypt to garbage; callers must
// treat ErrDecryptionFailure as the only reliable tamper signal.
type Cipher struct {
	keys driven.KeyStore

	mu  sync.Mutex
	key []byte // cached after first successful KeyStore fetch
}

// NewCipher creates a Cipher drawing its key from the given KeyStore.
func NewCipher(keys driven.KeyStore) *Cipher {
	return &Cipher{keys: keys}
}

// Encrypt encrypts plaintext and returns the printable blob.
func (c *Cipher) Encrypt(ctx context.Context, plaintext string) (string, error) {
	block, err := c.block(ctx)
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("rand iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, ivSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[ivSize:], padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt decodes and decrypts a blob produced by Encrypt. A malformed blob,
// a wrong key, or inconsistent padding yields ErrDecryptionFailure; corrupted
// plaintext is never returned silently as success without that check.
func (c *Cipher) Decrypt(ctx context.Context, blob string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("decode blob: %w: %w", ErrDecryptionFailure, err)
	}

	if len(data) < ivSize+aes.BlockSize || (len(data)-ivSize)%aes.BlockSize != 0 {
		return "", fmt.Errorf("blob has invalid length %d: %w", len(data), ErrDecryptionFailure)
	}

	block, err := c.block(ctx)
	if err != nil {
		return "", err
	}

	iv, ct := data[:ivSize], data[ivSize:]
	padded := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ct)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryptionFailure, err)
	}

	return string(plaintext), nil
}

// block returns the AES block cipher for the master key, fetching and caching
// the key on first use. The key is immutable once created, so a successful
// fetch is cached for the process lifetime; failures are not.
func (c *Cipher) block(ctx context.Context) (cipher.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key == nil {
		key, err := c.keys.GetOrCreateKey(ctx)
		if err != nil {
			return nil, err
		}
		c.key = key
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}

	return block, nil
}

// pkcs7Pad appends PKCS#7 padding up to the next blockSize boundary.
// Input that is already block-aligned gets a full padding block.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

// pkcs7Unpad validates and strips PKCS#7 padding.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("padded data has invalid length %d", len(data))
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("invalid padding byte %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}

	return data[:len(data)-n], nil
}

// FixedKey is a KeyStore that always returns the given key. It backs the
// configuration override that pins the master key instead of the database row.
type FixedKey []byte

// Compile-time interface satisfaction check.
var _ driven.KeyStore = FixedKey(nil)

// GetOrCreateKey returns the fixed key material.
func (k FixedKey) GetOrCreateKey(context.Context) ([]byte, error) {
	if len(k) != 32 {
		return nil, fmt.Errorf("fixed key has %d bytes, want 32: %w", len(k), driven.ErrKeyUnavailable)
	}
	return []byte(k), nil
}
