package driven

import (
	"context"

	"github.com/ericfisherdev/teamvault/internal/domain/model"
)

// GrantStore defines the driven port for per-credential grant rows.
type GrantStore interface {
	// Get retrieves the grant row for (credentialID, userID).
	// Returns (nil, nil) if no row exists.
	Get(ctx context.Context, credentialID, userID string) (*model.Grant, error)

	// Upsert inserts the grant row or overwrites the flags of an existing one.
	Upsert(ctx context.Context, grant model.Grant) error

	// Delete removes the grant row for (credentialID, userID). Deleting a
	// missing row is a no-op, not an error.
	Delete(ctx context.Context, credentialID, userID string) error

	// ListByCredential returns all grant rows for a credential joined with
	// user display data, ordered by full name then username.
	ListByCredential(ctx context.Context, credentialID string) ([]model.Grant, error)
}
