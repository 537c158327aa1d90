package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/opshub-io/opshub/pkg/audit"
	"github.com/opshub-io/opshub/pkg/httputil"
)

const auditColumns = "id, action, table_name, record_id, user_id, payload, created_at"

func scanAuditRow(row interface{ Scan(...interface{}) error }) (*audit.Entry, error) {
	var e audit.Entry
	var recordID, userID sql.NullInt64
	var payload sql.NullString
	err := row.Scan(&e.ID, &e.Action, &e.TableName, &recordID, &userID, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if recordID.Valid {
		e.RecordID = &recordID.Int64
	}
	if userID.Valid {
		e.UserID = &userID.Int64
	}
	if payload.Valid {
		e.Payload = json.RawMessage(payload.String)
	}
	return &e, nil
}

// CreateAuditLog appends a manual audit entry. The trail is append-only;
// there are no update or delete routes.
func (s *Server) CreateAuditLog(w http.ResponseWriter, r *http.Request) {
	var req CreateAuditLogRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Action, "action") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.TableName, "table_name") {
		return
	}

	var payloadJSON interface{}
	if req.Payload != nil {
		b, err := json.Marshal(req.Payload)
		if err != nil {
			httputil.WriteBadRequest(w, "payload is not valid JSON")
			return
		}
		payloadJSON = string(b)
	}

	var id int64
	if err := s.db.QueryRowContext(r.Context(),
		`INSERT INTO audit_logs (action, table_name, record_id, user_id, payload)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		req.Action, req.TableName, req.RecordID, actorID(r), payloadJSON,
	).Scan(&id); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.AuditRecordsTotal.Inc()
	}

	entry, err := s.fetchAuditLog(r, id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, entry)
}

// ListAuditLogs returns audit entries newest first. ?limit= caps the page
// size (default 100).
func (s *Server) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			httputil.WriteBadRequest(w, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	rows, err := s.db.QueryContext(r.Context(),
		"SELECT "+auditColumns+" FROM audit_logs ORDER BY id DESC LIMIT $1", limit)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	defer rows.Close()

	entries := []*audit.Entry{}
	for rows.Next() {
		entry, err := scanAuditRow(rows)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, entries)
}

// GetAuditLog returns a single audit entry by ID
func (s *Server) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	entry, err := s.fetchAuditLog(r, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.WriteNotFoundError(w, "audit log not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, entry)
}

func (s *Server) fetchAuditLog(r *http.Request, id int64) (*audit.Entry, error) {
	row := s.db.QueryRowContext(r.Context(),
		"SELECT "+auditColumns+" FROM audit_logs WHERE id = $1", id)
	return scanAuditRow(row)
}
