package driven

import (
	"context"

	"github.com/ericfisherdev/teamvault/internal/domain/model"
)

// UserStore defines the read-only driven port for host application users.
type UserStore interface {
	// GetByID retrieves a user by id. Returns (nil, nil) if no such user.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// ListActive returns active users ordered by full name then username,
	// excluding excludeID when non-empty. Used for grant-target selection.
	ListActive(ctx context.Context, excludeID string) ([]model.User, error)
}
