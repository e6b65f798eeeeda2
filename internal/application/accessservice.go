package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/teamvault/internal/domain/model"
	"github.com/ericfisherdev/teamvault/internal/domain/port/driven"
)

// Right is an access right testable against a credential.
type Right int

const (
	// RightView allows reading a credential, including its decrypted secret.
	RightView Right = iota
	// RightEdit allows mutating a credential's metadata and secret.
	// It does not imply RightView; the flags are independent.
	RightEdit
)

// String returns the right's name for logging.
func (r Right) String() string {
	if r == RightEdit {
		return "edit"
	}
	return "view"
}

// AccessService evaluates and mediates per-credential access. Owners hold
// both rights implicitly and are the only users who may grant or revoke.
type AccessService struct {
	grants driven.GrantStore
	logger *slog.Logger
}

// NewAccessService creates an AccessService over the given grant store.
func NewAccessService(grants driven.GrantStore, logger *slog.Logger) *AccessService {
	return &AccessService{grants: grants, logger: logger}
}

// Authorize reports whether userID holds the given right on the credential.
// Absence of authorization is a normal false, never an error.
func (s *AccessService) Authorize(ctx context.Context, cred model.Credential, userID string, right Right) (bool, error) {
	if userID == cred.OwnerID {
		return true, nil
	}

	grant, err := s.grants.Get(ctx, cred.ID, userID)
	if err != nil {
		return false, fmt.Errorf("authorize %s on %s: %w", right, cred.ID, err)
	}
	if grant == nil {
		return false, nil
	}

	if right == RightEdit {
		return grant.CanEdit, nil
	}
	return grant.CanView, nil
}

// Grant upserts the grant row for targetUserID on the credential. Only the
// owner may grant; a second call for the same pair overwrites the flags.
func (s *AccessService) Grant(ctx context.Context, cred model.Credential, granterID, targetUserID string, canView, canEdit bool, audit model.AuditContext) error {
	if granterID != cred.OwnerID {
		return fmt.Errorf("grant on %s by non-owner %s: %w", cred.ID, granterID, ErrPermissionDenied)
	}
	if targetUserID == cred.OwnerID {
		return fmt.Errorf("grant to owner of %s: %w", cred.ID, ErrValidation)
	}

	err := s.grants.Upsert(ctx, model.Grant{
		CredentialID: cred.ID,
		UserID:       targetUserID,
		CanView:      canView,
		CanEdit:      canEdit,
	})
	if err != nil {
		return fmt.Errorf("grant on %s: %w", cred.ID, err)
	}

	s.logger.Info("access granted",
		"credential_id", cred.ID,
		"target_user", targetUserID,
		"can_view", canView,
		"can_edit", canEdit,
		"actor", audit.ActorID,
		"remote_addr", audit.RemoteAddr,
	)
	return nil
}

// Revoke deletes the grant row for targetUserID on the credential. Only the
// owner may revoke; revoking a missing grant is a no-op success.
func (s *AccessService) Revoke(ctx context.Context, cred model.Credential, granterID, targetUserID string, audit model.AuditContext) error {
	if granterID != cred.OwnerID {
		return fmt.Errorf("revoke on %s by non-owner %s: %w", cred.ID, granterID, ErrPermissionDenied)
	}

	if err := s.grants.Delete(ctx, cred.ID, targetUserID); err != nil {
		return fmt.Errorf("revoke on %s: %w", cred.ID, err)
	}

	s.logger.Info("access revoked",
		"credential_id", cred.ID,
		"target_user", targetUserID,
		"actor", audit.ActorID,
		"remote_addr", audit.RemoteAddr,
	)
	return nil
}
