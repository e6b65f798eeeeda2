package application

import "errors"

// Sentinel errors returned by the vault services. Callers branch on these
// with errors.Is rather than on error text.
var (
	// ErrNotFound indicates the credential does not exist. Read paths that
	// must not leak existence return (nil, nil) instead.
	ErrNotFound = errors.New("credential not found")

	// ErrPermissionDenied indicates the caller lacks the right required for
	// the attempted mutation. Checked before any write is issued.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidation indicates a missing or invalid required field.
	ErrValidation = errors.New("validation failed")

	// ErrDecryptionFailure indicates a ciphertext blob that cannot be decoded
	// or decrypted consistently.
	ErrDecryptionFailure = errors.New("decryption failure")
)
