package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/opshub-io/opshub/pkg/audit"
	"github.com/opshub-io/opshub/pkg/auth"
	"github.com/opshub-io/opshub/pkg/observability"
	"github.com/opshub-io/opshub/pkg/storage"
)

// testIterations keeps password hashing fast in tests
const testIterations = 1000

type testServer struct {
	*Server
	db     *sql.DB
	hasher *auth.PasswordHasher

	adminToken   string
	managerToken string
	agentToken   string
	viewerToken  string
}

// setupTestServer builds a server over sqlite :memory: with one seeded user
// per role and a valid token for each.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.RunMigrations(context.Background(), db, "sqlite3"))

	logger := observability.NewLogger(observability.ErrorLevel, nil)
	hasher := auth.NewPasswordHasher(testIterations)
	tokens := auth.NewTokenService([]byte("test-secret"), 0)
	service := auth.NewService(hasher, tokens, auth.NewSQLUserStore(db))
	recorder := audit.NewRecorder(db, logger, nil)

	server := NewServer(db, service, recorder, logger, nil)
	ts := &testServer{Server: server, db: db, hasher: hasher}

	ts.adminToken = ts.seedUser(t, "admin@opshub.io", auth.RoleAdmin, true)
	ts.managerToken = ts.seedUser(t, "manager@opshub.io", auth.RoleManager, true)
	ts.agentToken = ts.seedUser(t, "agent@opshub.io", auth.RoleAgent, true)
	ts.viewerToken = ts.seedUser(t, "viewer@opshub.io", auth.RoleViewer, true)
	return ts
}

// seedUser inserts a user with password "password123" and returns a token
func (ts *testServer) seedUser(t *testing.T, email string, role auth.Role, active bool) string {
	t.Helper()

	hash, err := ts.hasher.Hash("password123")
	require.NoError(t, err)
	_, err = ts.db.Exec(
		`INSERT INTO users (email, full_name, is_active, role, password_hash)
		 VALUES ($1, $2, $3, $4, $5)`,
		email, "Test User", active, role, hash)
	require.NoError(t, err)

	token, err := ts.auth.Tokens().Issue(email, role, 0)
	require.NoError(t, err)
	return token
}

// do issues a request against the server's router. body may be nil or any
// JSON-marshalable value.
func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.Router().ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a response body into dest
func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func intPtr(v int64) *int64   { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }
