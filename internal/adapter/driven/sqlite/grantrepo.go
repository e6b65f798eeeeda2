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
var _ driven.GrantStore = (*GrantRepo)(nil)

// GrantRepo is the SQLite implementation of the GrantStore port interface.
type GrantRepo struct {
	db *DB
}

// NewGrantRepo creates a new GrantRepo backed by the given DB.
func NewGrantRepo(db *DB) *GrantRepo {
	return &GrantRepo{db: db}
}

// Get retrieves the grant row for (credentialID, userID).
// Returns nil, nil if no row exists.
func (r *GrantRepo) Get(ctx context.Context, credentialID, userID string) (*model.Grant, error) {
	const query = `SELECT credential_id, user_id, can_view, can_edit, created_at
	               FROM grants WHERE credential_id = ? AND user_id = ?`

	var g model.Grant
	var canView, canEdit int
	var createdAt string

	err := r.db.Reader.QueryRowContext(ctx, query, credentialID, userID).
		Scan(&g.CredentialID, &g.UserID, &canView, &canEdit, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get grant %s/%s: %w", credentialID, userID, err)
	}

	g.CanView = canView == 1
	g.CanEdit = canEdit == 1

	g.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &g, nil
}

// Upsert inserts the grant row or overwrites the flags of an existing one.
func (r *GrantRepo) Upsert(ctx context.Context, grant model.Grant) error {
	const query = `INSERT INTO grants (credential_id, user_id, can_view, can_edit, created_at)
	               VALUES (?, ?, ?, ?, ?)
	               ON CONFLICT (credential_id, user_id)
	               DO UPDATE SET can_view = excluded.can_view, can_edit = excluded.can_edit`

	createdAt := grant.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		grant.CredentialID, grant.UserID, boolToInt(grant.CanView), boolToInt(grant.CanEdit), createdAt)
	if err != nil {
		return fmt.Errorf("upsert grant %s/%s: %w", grant.CredentialID, grant.UserID, err)
	}

	return nil
}

// Delete removes the grant row for (credentialID, userID). Deleting a missing
// row is a no-op.
func (r *GrantRepo) Delete(ctx context.Context, credentialID, userID string) error {
	const query = `DELETE FROM grants WHERE credential_id = ? AND user_id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, credentialID, userID)
	if err != nil {
		return fmt.Errorf("delete grant %s/%s: %w", credentialID, userID, err)
	}

	return nil
}

// ListByCredential returns all grant rows for a credential joined with user
// display data, ordered by full name then username.
func (r *GrantRepo) ListByCredential(ctx context.Context, credentialID string) ([]model.Grant, error) {
	const query = `SELECT g.credential_id, g.user_id, g.can_view, g.can_edit, g.created_at,
	                      COALESCE(u.username, ''), COALESCE(u.full_name, '')
	               FROM grants g
	               LEFT JOIN users u ON u.id = g.user_id
	               WHERE g.credential_id = ?
	               ORDER BY u.full_name, u.username`

	rows, err := r.db.Reader.QueryContext(ctx, query, credentialID)
	if err != nil {
		return nil, fmt.Errorf("list grants for %s: %w", credentialID, err)
	}
	defer rows.Close()

	var grants []model.Grant
	for rows.Next() {
		var g model.Grant
		var canView, canEdit int
		var createdAt string
		if err := rows.Scan(&g.CredentialID, &g.UserID, &canView, &canEdit, &createdAt,
			&g.Username, &g.FullName); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		g.CanView = canView == 1
		g.CanEdit = canEdit == 1

		g.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}

		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grants: %w", err)
	}

	return grants, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
