package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/teamvault/internal/domain/model"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// CredentialStore defines the driven port for credential persistence.
// Secrets cross this boundary as ciphertext; encryption happens above it.
type CredentialStore interface {
	// Insert persists a new credential. The caller assigns the id.
	Insert(ctx context.Context, cred model.Credential) error

	// GetByID retrieves a credential by id, secret ciphertext included.
	// Returns (nil, nil) if no such credential exists.
	GetByID(ctx context.Context, id string) (*model.Credential, error)

	// Update replaces the metadata fields of an existing credential.
	// An empty Secret leaves the stored ciphertext untouched.
	// Returns ErrNotFound if the credential does not exist.
	Update(ctx context.Context, cred model.Credential) error

	// Delete removes a credential. Grant rows cascade at the schema level.
	// Returns ErrNotFound if the credential does not exist.
	Delete(ctx context.Context, id string) error

	// ListForUser returns metadata summaries of credentials the user owns or
	// holds any grant row on, ordered by title. Secrets are never selected.
	ListForUser(ctx context.Context, userID string, filters model.ListFilters, page model.Page) ([]model.CredentialSummary, error)

	// CountForUser returns the total matching ListForUser without pagination.
	CountForUser(ctx context.Context, userID string, filters model.ListFilters) (int, error)
}
