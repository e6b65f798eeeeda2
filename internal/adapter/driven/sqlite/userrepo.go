package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/teamvault/internal/domain/model"
	"github.com/ericfisherdev/teamvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the read-only SQLite implementation of the UserStore port
// interface. User rows are owned by the host application.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByID retrieves a user by id. Returns nil, nil if no such user exists.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	const query = `SELECT id, username, full_name, email, is_active, created_at
	               FROM users WHERE id = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	return user, nil
}

// ListActive returns active users ordered by full name then username,
// excluding excludeID when non-empty.
func (r *UserRepo) ListActive(ctx context.Context, excludeID string) ([]model.User, error) {
	query := `SELECT id, username, full_name, email, is_active, created_at
	          FROM users WHERE is_active = 1`
	var args []any

	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}

	query += ` ORDER BY full_name, username`

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func scanUser(s scanner) (*model.User, error) {
	var user model.User
	var isActive int
	var createdAt string

	err := s.Scan(&user.ID, &user.Username, &user.FullName, &user.Email, &isActive, &createdAt)
	if err != nil {
		return nil, err
	}
	user.IsActive = isActive == 1

	user.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &user, nil
}
