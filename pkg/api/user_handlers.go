package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/opshub-io/opshub/pkg/auth"
	"github.com/opshub-io/opshub/pkg/httputil"
)

const userColumns = "id, email, full_name, is_active, role, password_hash, created_at"

func scanUserRow(row interface{ Scan(...interface{}) error }) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.IsActive, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// emailTaken reports whether another user already holds the email.
// excludeID skips the user being updated; pass 0 on create.
func (s *Server) emailTaken(r *http.Request, email string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*) FROM users WHERE email = $1 AND id != $2",
		email, excludeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateUser creates a user account. Admin only.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.FullName, "full_name") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}
	if !req.Role.Valid() {
		httputil.WriteBadRequest(w, fmt.Sprintf("invalid role: %s", req.Role))
		return
	}

	taken, err := s.emailTaken(r, req.Email, 0)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if taken {
		httputil.WriteConflict(w, "email already registered")
		return
	}

	hash, err := s.auth.Hasher().Hash(req.Password)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	var id int64
	if err := s.db.QueryRowContext(r.Context(),
		`INSERT INTO users (email, full_name, is_active, role, password_hash)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		req.Email, req.FullName, isActive, req.Role, hash,
	).Scan(&id); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	user, err := s.fetchUser(r, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	s.recorder.Record(r.Context(), "create", "users", &id, actorID(r),
		map[string]string{"email": req.Email, "role": string(req.Role)})
	httputil.WriteCreated(w, user)
}

// ListUsers returns all user accounts
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.QueryContext(r.Context(),
		"SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	defer rows.Close()

	users := []*auth.User{}
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, users)
}

// GetUser returns a single user by ID
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	user, err := s.fetchUser(r, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, user)
}

// UpdateUser applies a partial update to a user account. Admin only.
func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Role != nil && !req.Role.Valid() {
		httputil.WriteBadRequest(w, fmt.Sprintf("invalid role: %s", *req.Role))
		return
	}

	if _, err := s.fetchUser(r, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	var sets []string
	var args []interface{}
	addSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Email != nil {
		taken, err := s.emailTaken(r, *req.Email, id)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		if taken {
			httputil.WriteConflict(w, "email already registered")
			return
		}
		addSet("email", *req.Email)
	}
	if req.FullName != nil {
		addSet("full_name", *req.FullName)
	}
	if req.Role != nil {
		addSet("role", *req.Role)
	}
	if req.IsActive != nil {
		addSet("is_active", *req.IsActive)
	}
	if req.Password != nil {
		hash, err := s.auth.Hasher().Hash(*req.Password)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		addSet("password_hash", hash)
	}

	if len(sets) > 0 {
		args = append(args, id)
		query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d",
			strings.Join(sets, ", "), len(args))
		if _, err := s.db.ExecContext(r.Context(), query, args...); err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		// never put the plaintext password in the trail
		payload := map[string]interface{}{}
		if req.Email != nil {
			payload["email"] = *req.Email
		}
		if req.FullName != nil {
			payload["full_name"] = *req.FullName
		}
		if req.Role != nil {
			payload["role"] = *req.Role
		}
		if req.IsActive != nil {
			payload["is_active"] = *req.IsActive
		}
		if req.Password != nil {
			payload["password_changed"] = true
		}
		s.recorder.Record(r.Context(), "update", "users", &id, actorID(r), payload)
	}

	user, err := s.fetchUser(r, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// DeleteUser removes a user account. Admin only.
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	result, err := s.db.ExecContext(r.Context(), "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	affected, err := result.RowsAffected()
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if affected == 0 {
		httputil.WriteNotFoundError(w, "user not found")
		return
	}

	s.recorder.Record(r.Context(), "delete", "users", &id, actorID(r), nil)
	httputil.WriteNoContent(w)
}

func (s *Server) fetchUser(r *http.Request, id int64) (*auth.User, error) {
	row := s.db.QueryRowContext(r.Context(),
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUserRow(row)
}
