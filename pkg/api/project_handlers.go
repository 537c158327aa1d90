package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/opshub-io/opshub/pkg/httputil"
)

const projectColumns = "id, name, description, status, owner_id, created_at, updated_at"

func scanProjectRow(row interface{ Scan(...interface{}) error }) (*Project, error) {
	var p Project
	var description sql.NullString
	var ownerID sql.NullInt64
	err := row.Scan(&p.ID, &p.Name, &description, &p.Status, &ownerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	if ownerID.Valid {
		p.OwnerID = &ownerID.Int64
	}
	return &p, nil
}

// CreateProject creates a project
func (s *Server) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if req.Status == "" {
		req.Status = ProjectActive
	}
	if !req.Status.Valid() {
		httputil.WriteBadRequest(w, fmt.Sprintf("invalid status: %s", req.Status))
		return
	}

	now := time.Now().UTC()
	var id int64
	if err := s.db.QueryRowContext(r.Context(),
		`INSERT INTO projects (name, description, status, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		req.Name, req.Description, req.Status, req.OwnerID, now, now,
	).Scan(&id); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	project, err := s.fetchProject(r, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	s.recorder.Record(r.Context(), "create", "projects", &id, actorID(r),
		map[string]string{"name": req.Name})
	httputil.WriteCreated(w, project)
}

// ListProjects returns all projects
func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.QueryContext(r.Context(),
		"SELECT "+projectColumns+" FROM projects ORDER BY id")
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		project, err := scanProjectRow(rows)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, projects)
}

// GetProject returns a single project by ID
func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	project, err := s.fetchProject(r, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.WriteNotFoundError(w, "project not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, project)
}

// UpdateProject applies a partial update to a project
func (s *Server) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		httputil.WriteBadRequest(w, fmt.Sprintf("invalid status: %s", *req.Status))
		return
	}

	if _, err := s.fetchProject(r, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.WriteNotFoundError(w, "project not found")
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

	if req.Name != nil {
		if *req.Name == "" {
			httputil.WriteBadRequest(w, "name must not be empty")
			return
		}
		addSet("name", *req.Name)
	}
	if req.Description != nil {
		addSet("description", *req.Description)
	}
	if req.Status != nil {
		addSet("status", *req.Status)
	}
	if req.OwnerID != nil {
		addSet("owner_id", *req.OwnerID)
	}

	if len(sets) > 0 {
		addSet("updated_at", time.Now().UTC())
		args = append(args, id)
		query := fmt.Sprintf("UPDATE projects SET %s WHERE id = $%d",
			strings.Join(sets, ", "), len(args))
		if _, err := s.db.ExecContext(r.Context(), query, args...); err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		s.recorder.Record(r.Context(), "update", "projects", &id, actorID(r), req)
	}

	project, err := s.fetchProject(r, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, project)
}

// DeleteProject removes a project and cascades to its tickets
func (s *Server) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	result, err := s.db.ExecContext(r.Context(), "DELETE FROM projects WHERE id = $1", id)
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
		httputil.WriteNotFoundError(w, "project not found")
		return
	}

	s.recorder.Record(r.Context(), "delete", "projects", &id, actorID(r), nil)
	httputil.WriteNoContent(w)
}

func (s *Server) fetchProject(r *http.Request, id int64) (*Project, error) {
	row := s.db.QueryRowContext(r.Context(),
		"SELECT "+projectColumns+" FROM projects WHERE id = $1", id)
	return scanProjectRow(row)
}
