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

const ticketColumns = "id, project_id, title, description, priority, status, assignee_id, created_at, updated_at"

func scanTicketRow(row interface{ Scan(...interface{}) error }) (*Ticket, error) {
	var t Ticket
	var description sql.NullString
	var assigneeID sql.NullInt64
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &description, &t.Priority,
		&t.Status, &assigneeID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	if assigneeID.Valid {
		t.AssigneeID = &assigneeID.Int64
	}
	return &t, nil
}

// CreateTicket creates a ticket under an existing project
func (s *Server) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req CreateTicketRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Title, "title") {
		return
	}
	if req.ProjectID == 0 {
		httputil.WriteBadRequest(w, "project_id is required")
		return
	}
	if req.Priority == "" {
		req.Priority = PriorityMed
	}
	if !req.Priority.Valid() {
		httputil.WriteBadRequest(w, fmt.Sprintf("invalid priority: %s", req.Priority))
		return
	}
	if req.Status == "" {
		req.Status = TicketOpen
	}
	if !req.Status.Valid() {
		httputil.WriteBadRequest(w, fmt.Sprintf("invalid status: %s", req.Status))
		return
	}

	// the project must exist; FK enforcement varies by driver
	var exists int
	if err := s.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*) FROM projects WHERE id = $1", req.ProjectID).Scan(&exists); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if exists == 0 {
		httputil.WriteNotFoundError(w, "project not found")
		return
	}

	now := time.Now().UTC()
	var id int64
	if err := s.db.QueryRowContext(r.Context(),
		`INSERT INTO tickets (project_id, title, description, priority, status, assignee_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		req.ProjectID, req.Title, req.Description, req.Priority, req.Status, req.AssigneeID, now, now,
	).Scan(&id); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	ticket, err := s.fetchTicket(r, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	s.recorder.Record(r.Context(), "create", "tickets", &id, actorID(r),
		map[string]interface{}{"title": req.Title, "project_id": req.ProjectID})
	httputil.WriteCreated(w, ticket)
}

// ListTickets returns tickets, optionally filtered by project or status
func (s *Server) ListTickets(w http.ResponseWriter, r *http.Request) {
	query := "SELECT " + ticketColumns + " FROM tickets"
	var conditions []string
	var args []interface{}

	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		args = append(args, projectID)
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if status := r.URL.Query().Get("status"); status != "" {
		if !TicketStatus(status).Valid() {
			httputil.WriteBadRequest(w, fmt.Sprintf("invalid status: %s", status))
			return
		}
		args = append(args, status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	defer rows.Close()

	tickets := []*Ticket{}
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, tickets)
}

// GetTicket returns a single ticket by ID
func (s *Server) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	ticket, err := s.fetchTicket(r, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.WriteNotFoundError(w, "ticket not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, ticket)
}

// UpdateTicket applies a partial update. updated_at moves only when at least
// one field is present in the request body.
func (s *Server) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTicketRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Priority != nil && !req.Priority.Valid() {
		httputil.WriteBadRequest(w, fmt.Sprintf("invalid priority: %s", *req.Priority))
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		httputil.WriteBadRequest(w, fmt.Sprintf("invalid status: %s", *req.Status))
		return
	}

	if _, err := s.fetchTicket(r, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.WriteNotFoundError(w, "ticket not found")
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

	if req.Title != nil {
		if *req.Title == "" {
			httputil.WriteBadRequest(w, "title must not be empty")
			return
		}
		addSet("title", *req.Title)
	}
	if req.Description != nil {
		addSet("description", *req.Description)
	}
	if req.Priority != nil {
		addSet("priority", *req.Priority)
	}
	if req.Status != nil {
		addSet("status", *req.Status)
	}
	if req.AssigneeID != nil {
		addSet("assignee_id", *req.AssigneeID)
	}

	if len(sets) > 0 {
		addSet("updated_at", time.Now().UTC())
		args = append(args, id)
		query := fmt.Sprintf("UPDATE tickets SET %s WHERE id = $%d",
			strings.Join(sets, ", "), len(args))
		if _, err := s.db.ExecContext(r.Context(), query, args...); err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		s.recorder.Record(r.Context(), "update", "tickets", &id, actorID(r), req)
	}

	ticket, err := s.fetchTicket(r, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, ticket)
}

// DeleteTicket removes a ticket
func (s *Server) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	result, err := s.db.ExecContext(r.Context(), "DELETE FROM tickets WHERE id = $1", id)
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
		httputil.WriteNotFoundError(w, "ticket not found")
		return
	}

	s.recorder.Record(r.Context(), "delete", "tickets", &id, actorID(r), nil)
	httputil.WriteNoContent(w)
}

func (s *Server) fetchTicket(r *http.Request, id int64) (*Ticket, error) {
	row := s.db.QueryRowContext(r.Context(),
		"SELECT "+ticketColumns+" FROM tickets WHERE id = $1", id)
	return scanTicketRow(row)
}
