package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opshub-io/opshub/pkg/audit"
)

func TestMutationsAppendAuditEntries(t *testing.T) {
	ts := setupTestServer(t)

	p := createProject(t, ts, ts.managerToken, "Audited")
	createTicket(t, ts, ts.managerToken, CreateTicketRequest{ProjectID: p.ID, Title: "T"})

	rec := ts.do(t, http.MethodGet, "/api/v1/audit-logs", ts.viewerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []audit.Entry
	decode(t, rec, &entries)
	require.Len(t, entries, 2)

	// newest first
	assert.Equal(t, "tickets", entries[0].TableName)
	assert.Equal(t, "projects", entries[1].TableName)
	assert.Equal(t, "create", entries[0].Action)

	// attributed to the acting user (manager is user 2)
	require.NotNil(t, entries[1].UserID)
	assert.Equal(t, int64(2), *entries[1].UserID)
}

func TestCreateAuditLogManual(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/audit-logs", ts.managerToken, CreateAuditLogRequest{
		Action:    "export",
		TableName: "tickets",
		RecordID:  intPtr(5),
		Payload:   map[string]string{"format": "csv"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var entry audit.Entry
	decode(t, rec, &entry)
	assert.Equal(t, "export", entry.Action)
	require.NotNil(t, entry.RecordID)
	assert.Equal(t, int64(5), *entry.RecordID)
	assert.JSONEq(t, `{"format":"csv"}`, string(entry.Payload))

	rec = ts.do(t, http.MethodGet, "/api/v1/audit-logs/1", ts.viewerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAuditLogRoles(t *testing.T) {
	ts := setupTestServer(t)

	req := CreateAuditLogRequest{Action: "note", TableName: "projects"}

	for token, want := range map[string]int{
		ts.adminToken:   http.StatusCreated,
		ts.managerToken: http.StatusCreated,
		ts.agentToken:   http.StatusForbidden,
		ts.viewerToken:  http.StatusForbidden,
	} {
		rec := ts.do(t, http.MethodPost, "/api/v1/audit-logs", token, req)
		assert.Equal(t, want, rec.Code)
	}
}

func TestAuditLogsImmutable(t *testing.T) {
	ts := setupTestServer(t)

	ts.do(t, http.MethodPost, "/api/v1/audit-logs", ts.adminToken,
		CreateAuditLogRequest{Action: "note", TableName: "projects"})

	// no update or delete routes exist on the trail
	rec := ts.do(t, http.MethodPut, "/api/v1/audit-logs/1", ts.adminToken,
		CreateAuditLogRequest{Action: "tampered", TableName: "projects"})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/audit-logs/1", ts.adminToken, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListAuditLogsLimit(t *testing.T) {
	ts := setupTestServer(t)

	for i := 0; i < 5; i++ {
		rec := ts.do(t, http.MethodPost, "/api/v1/audit-logs", ts.adminToken,
			CreateAuditLogRequest{Action: "note", TableName: "projects"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/audit-logs?limit=2", ts.viewerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []audit.Entry
	decode(t, rec, &entries)
	assert.Len(t, entries, 2)
	assert.Equal(t, int64(5), entries[0].ID)

	rec = ts.do(t, http.MethodGet, "/api/v1/audit-logs?limit=0", ts.viewerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
