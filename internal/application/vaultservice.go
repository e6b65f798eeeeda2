package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ericfisherdev/teamvault/internal/domain/model"
	"github.com/ericfisherdev/teamvault/internal/domain/port/driven"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// VaultService orchestrates credential CRUD. Every operation authorizes the
// caller through AccessService before touching the store, and secret material
// passes through the Cipher on its way in and out of persistence.
type VaultService struct {
	creds  driven.CredentialStore
	grants driven.GrantStore
	users  driven.UserStore
	cipher *Cipher
	access *AccessService
	logger *slog.Logger
}

// NewVaultService creates a VaultService with all required dependencies.
func NewVaultService(
	creds driven.CredentialStore,
	grants driven.GrantStore,
	users driven.UserStore,
	cipher *Cipher,
	access *AccessService,
	logger *slog.Logger,
) *VaultService {
	return &VaultService{
		creds:  creds,
		grants: grants,
		users:  users,
		cipher: cipher,
		access: access,
		logger: logger,
	}
}

// Create validates and persists a new credential owned by ownerID, encrypting
// the secret first. Returns the stored credential with a freshly assigned id
// and without plaintext.
func (s *VaultService) Create(ctx context.Context, ownerID string, input model.CredentialInput, audit model.AuditContext) (model.Credential, error) {
	if strings.TrimSpace(input.Title) == "" {
		return model.Credential{}, fmt.Errorf("title is required: %w", ErrValidation)
	}

	ciphertext, err := s.cipher.Encrypt(ctx, input.Secret)
	if err != nil {
		return model.Credential{}, fmt.Errorf("encrypt secret: %w", err)
	}

	cred := model.Credential{
		ID:       uuid.NewString(),
		Title:    input.Title,
		Link:     input.Link,
		Username: input.Username,
		Secret:   ciphertext,
		Notes:    input.Notes,
		OwnerID:  ownerID,
	}

	if err := s.creds.Insert(ctx, cred); err != nil {
		return model.Credential{}, err
	}

	s.logger.Info("credential created",
		"credential_id", cred.ID,
		"owner", ownerID,
		"actor", audit.ActorID,
		"remote_addr", audit.RemoteAddr,
	)
	return cred, nil
}

// Get returns the credential when userID holds the view right. A missing
// credential and a denied view are both (nil, nil), indistinguishable to the
// caller so that errors cannot be used to probe for existence. With decrypt
// set, Plaintext carries the transient decrypted secret.
func (s *VaultService) Get(ctx context.Context, id, userID string, decrypt bool) (*model.Credential, error) {
	cred, err := s.creds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, nil
	}

	ok, err := s.access.Authorize(ctx, *cred, userID, RightView)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	if decrypt {
		plaintext, err := s.cipher.Decrypt(ctx, cred.Secret)
		if err != nil {
			return nil, fmt.Errorf("decrypt credential %s: %w", id, err)
		}
		cred.Plaintext = plaintext
	}

	return cred, nil
}

// Update replaces the credential's metadata wholesale from input. The secret
// is optional: when input.Secret is empty the stored ciphertext is kept, and
// when present it is re-encrypted under a freshly drawn IV. Requires the edit
// right; an edit grant without view is sufficient.
func (s *VaultService) Update(ctx context.Context, id, userID string, input model.CredentialInput, audit model.AuditContext) error {
	cred, err := s.creds.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cred == nil {
		return fmt.Errorf("update credential %s: %w", id, ErrNotFound)
	}

	ok, err := s.access.Authorize(ctx, *cred, userID, RightEdit)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("update credential %s by %s: %w", id, userID, ErrPermissionDenied)
	}

	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("title is required: %w", ErrValidation)
	}

	var ciphertext string
	if input.Secret != "" {
		ciphertext, err = s.cipher.Encrypt(ctx, input.Secret)
		if err != nil {
			return fmt.Errorf("encrypt secret: %w", err)
		}
	}

	err = s.creds.Update(ctx, model.Credential{
		ID:       id,
		Title:    input.Title,
		Link:     input.Link,
		Username: input.Username,
		Secret:   ciphertext,
		Notes:    input.Notes,
	})
	if err != nil {
		return err
	}

	s.logger.Info("credential updated",
		"credential_id", id,
		"secret_rotated", input.Secret != "",
		"actor", audit.ActorID,
		"remote_addr", audit.RemoteAddr,
	)
	return nil
}

// Delete removes the credential and, by schema cascade, its grant rows.
// Deletion is owner-only: an edit grant never delegates it.
func (s *VaultService) Delete(ctx context.Context, id, userID string, audit model.AuditContext) error {
	cred, err := s.creds.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cred == nil {
		return fmt.Errorf("delete credential %s: %w", id, ErrNotFound)
	}

	if cred.OwnerID != userID {
		return fmt.Errorf("delete credential %s by non-owner %s: %w", id, userID, ErrPermissionDenied)
	}

	if err := s.creds.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("credential deleted",
		"credential_id", id,
		"actor", audit.ActorID,
		"remote_addr", audit.RemoteAddr,
	)
	return nil
}

// List returns metadata summaries of credentials userID owns or holds any
// grant row on. A grant row with both flags false still lists the credential
// even though Get denies its content; listing visibility follows row
// existence, not the view flag.
func (s *VaultService) List(ctx context.Context, userID string, filters model.ListFilters, page model.Page) ([]model.CredentialSummary, error) {
	page = NormalizePage(page)

	summaries, err := s.creds.ListForUser(ctx, userID, filters, page)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []model.CredentialSummary{}
	}

	return summaries, nil
}

// Count returns the total List would match without pagination.
func (s *VaultService) Count(ctx context.Context, userID string, filters model.ListFilters) (int, error) {
	return s.creds.CountForUser(ctx, userID, filters)
}

// ListPermissions returns the credential's grant rows joined with user
// display data. Owner-only.
func (s *VaultService) ListPermissions(ctx context.Context, id, userID string) ([]model.Grant, error) {
	cred, err := s.creds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, fmt.Errorf("list permissions for %s: %w", id, ErrNotFound)
	}

	if cred.OwnerID != userID {
		return nil, fmt.Errorf("list permissions for %s by non-owner %s: %w", id, userID, ErrPermissionDenied)
	}

	grants, err := s.grants.ListByCredential(ctx, id)
	if err != nil {
		return nil, err
	}
	if grants == nil {
		grants = []model.Grant{}
	}

	return grants, nil
}

// GrantAccess resolves the credential and delegates to AccessService.Grant.
func (s *VaultService) GrantAccess(ctx context.Context, id, granterID, targetUserID string, canView, canEdit bool, audit model.AuditContext) error {
	cred, err := s.creds.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cred == nil {
		return fmt.Errorf("grant on %s: %w", id, ErrNotFound)
	}

	return s.access.Grant(ctx, *cred, granterID, targetUserID, canView, canEdit, audit)
}

// RevokeAccess resolves the credential and delegates to AccessService.Revoke.
func (s *VaultService) RevokeAccess(ctx context.Context, id, granterID, targetUserID string, audit model.AuditContext) error {
	cred, err := s.creds.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cred == nil {
		return fmt.Errorf("revoke on %s: %w", id, ErrNotFound)
	}

	return s.access.Revoke(ctx, *cred, granterID, targetUserID, audit)
}

// GrantableUsers returns the active users a requester may grant access to,
// excluding the requester themselves.
func (s *VaultService) GrantableUsers(ctx context.Context, requesterID string) ([]model.User, error) {
	users, err := s.users.ListActive(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}

	return users, nil
}

// NormalizePage clamps a pagination request to sane bounds.
func NormalizePage(page model.Page) model.Page {
	if page.Number < 1 {
		page.Number = 1
	}
	if page.PerPage < 1 {
		page.PerPage = defaultPerPage
	}
	if page.PerPage > maxPerPage {
		page.PerPage = maxPerPage
	}
	return page
}
