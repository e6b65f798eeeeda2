package driven

import (
	"context"
	"errors"
)

// ErrKeyUnavailable indicates the master key could neither be read nor
// initialized, typically a persistence outage. Distinct from a creation
// conflict, which implementations resolve internally.
var ErrKeyUnavailable = errors.New("master key unavailable")

// KeyStore defines the driven port for the single symmetric master key.
type KeyStore interface {
	// GetOrCreateKey returns the 32-byte master key, generating and
	// persisting it on first use. Creation must be atomic: when two callers
	// race on an empty store, both converge on the same winning key.
	GetOrCreateKey(ctx context.Context) ([]byte, error)
}
