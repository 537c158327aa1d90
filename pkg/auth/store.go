package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrUserNotFound is returned by store lookups when no row matches.
var ErrUserNotFound = errors.New("user not found")

// UserStore is the identity-lookup collaborator consumed by the
// authentication gate. Both lookups return inactive users as-is; the caller
// decides what the active flag means.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}

// SQLUserStore implements UserStore over a database/sql connection.
type SQLUserStore struct {
	db *sql.DB
}

// NewSQLUserStore creates a user store backed by db.
func NewSQLUserStore(db *sql.DB) *SQLUserStore {
	return &SQLUserStore{db: db}
}

const userColumns = "id, email, full_name, is_active, role, password_hash, created_at"

// GetByEmail looks up a user by its unique email handle.
func (s *SQLUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email))
}

// GetByID looks up a user by primary key.
func (s *SQLUserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

func (s *SQLUserStore) scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.IsActive,
		&user.Role, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
