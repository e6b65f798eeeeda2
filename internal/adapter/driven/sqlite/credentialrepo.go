package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/teamvault/internal/domain/model"
	"github.com/ericfisherdev/teamvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port
// interface. Secret values arrive and leave as ciphertext; this layer never
// sees plaintext.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Insert persists a new credential under its caller-assigned id.
func (r *CredentialRepo) Insert(ctx context.Context, cred model.Credential) error {
	const query = `INSERT INTO credentials (id, title, link, username, secret, notes, owner_id, created_at, updated_at)
	               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	createdAt := cred.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		cred.ID, cred.Title, cred.Link, cred.Username, cred.Secret, cred.Notes, cred.OwnerID, createdAt, createdAt)
	if err != nil {
		return fmt.Errorf("insert credential %s: %w", cred.ID, err)
	}

	return nil
}

// GetByID retrieves a credential by id, ciphertext included.
// Returns nil, nil if the credential does not exist.
func (r *CredentialRepo) GetByID(ctx context.Context, id string) (*model.Credential, error) {
	const query = `SELECT id, title, link, username, secret, notes, owner_id, created_at, updated_at
	               FROM credentials WHERE id = ?`

	cred, err := scanCredential(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %s: %w", id, err)
	}

	return cred, nil
}

// Update replaces the metadata fields of an existing credential. An empty
// Secret leaves the stored ciphertext untouched; a non-empty one replaces it.
func (r *CredentialRepo) Update(ctx context.Context, cred model.Credential) error {
	query := `UPDATE credentials SET title = ?, link = ?, username = ?, notes = ?, updated_at = ?`
	args := []any{cred.Title, cred.Link, cred.Username, cred.Notes, time.Now().UTC()}

	if cred.Secret != "" {
		query += `, secret = ?`
		args = append(args, cred.Secret)
	}

	query += ` WHERE id = ?`
	args = append(args, cred.ID)

	result, err := r.db.Writer.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update credential %s: %w", cred.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update credential %s: %w", cred.ID, driven.ErrNotFound)
	}

	return nil
}

// Delete removes a credential. Grant rows cascade via the schema foreign key.
func (r *CredentialRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM credentials WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete credential %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete credential %s: %w", id, driven.ErrNotFound)
	}

	return nil
}

// ListForUser returns summaries of credentials the user owns or holds any
// grant row on, ordered by title. Visibility is governed by grant-row
// existence, matching Authorize only for content access.
func (r *CredentialRepo) ListForUser(ctx context.Context, userID string, filters model.ListFilters, page model.Page) ([]model.CredentialSummary, error) {
	query := `SELECT c.id, c.title, c.link, c.username, c.notes, c.owner_id,
	                 COALESCE(u.username, ''), COALESCE(u.full_name, ''),
	                 CASE WHEN c.owner_id = ? THEN 1 WHEN g.can_edit = 1 THEN 1 ELSE 0 END,
	                 c.created_at
	          FROM credentials c
	          LEFT JOIN grants g ON g.credential_id = c.id AND g.user_id = ?
	          LEFT JOIN users u ON u.id = c.owner_id
	          WHERE (c.owner_id = ? OR g.user_id IS NOT NULL)`
	args := []any{userID, userID, userID}

	if filters.Search != "" {
		query += ` AND (c.title LIKE ? OR c.link LIKE ? OR c.username LIKE ?)`
		term := "%" + filters.Search + "%"
		args = append(args, term, term, term)
	}

	query += ` ORDER BY c.title LIMIT ? OFFSET ?`
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var summaries []model.CredentialSummary
	for rows.Next() {
		var s model.CredentialSummary
		var canEdit int
		var createdAt string
		if err := rows.Scan(&s.ID, &s.Title, &s.Link, &s.Username, &s.Notes, &s.OwnerID,
			&s.OwnerUsername, &s.OwnerFullName, &canEdit, &createdAt); err != nil {
			return nil, fmt.Errorf("scan credential summary: %w", err)
		}
		s.CanEdit = canEdit == 1

		s.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for credential %s: %w", s.ID, err)
		}

		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return summaries, nil
}

// CountForUser returns the total number of credentials ListForUser would
// match without pagination.
func (r *CredentialRepo) CountForUser(ctx context.Context, userID string, filters model.ListFilters) (int, error) {
	query := `SELECT COUNT(*)
	          FROM credentials c
	          LEFT JOIN grants g ON g.credential_id = c.id AND g.user_id = ?
	          WHERE (c.owner_id = ? OR g.user_id IS NOT NULL)`
	args := []any{userID, userID}

	if filters.Search != "" {
		query += ` AND (c.title LIKE ? OR c.link LIKE ? OR c.username LIKE ?)`
		term := "%" + filters.Search + "%"
		args = append(args, term, term, term)
	}

	var total int
	if err := r.db.Reader.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count credentials: %w", err)
	}

	return total, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (*model.Credential, error) {
	var cred model.Credential
	var createdAt, updatedAt string

	err := s.Scan(&cred.ID, &cred.Title, &cred.Link, &cred.Username, &cred.Secret,
		&cred.Notes, &cred.OwnerID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	cred.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	cred.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &cred, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999 -0700 MST",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
